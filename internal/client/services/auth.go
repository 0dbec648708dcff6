package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/api"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/store"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/validation"
	"github.com/dmitrijs2005/nutrikeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// EntryRoute is where the user lands after the session is lost.
const EntryRoute = "/welcome"

// AuthAPI is the part of the backend client the auth flows need.
type AuthAPI interface {
	SignUp(ctx context.Context, in *models.SignUpRequest) (*models.AuthResult, error)
	SignIn(ctx context.Context, in *models.SignInRequest) (*models.AuthResult, error)
	VerifyEmail(ctx context.Context, in *models.VerifyEmailRequest) (*models.AuthResult, error)
	ResendVerification(ctx context.Context, in *models.ResendVerificationRequest) error
	Me(ctx context.Context) (*models.User, error)
}

type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Navigator moves the UI to another screen.
type Navigator interface {
	Replace(route string)
}

// AuthService drives the auth state store.
//
// Each lifecycle method dispatches pending, then fulfilled or rejected, and
// returns the error it rejected with. Validation failures are returned
// before anything is dispatched.
type AuthService interface {
	SignUp(ctx context.Context, in *models.SignUpRequest) (*models.AuthResult, error)
	SignIn(ctx context.Context, in *models.SignInRequest) (*models.AuthResult, error)
	VerifyEmail(ctx context.Context, in *models.VerifyEmailRequest) (*models.AuthResult, error)
	ResendVerification(ctx context.Context, in *models.ResendVerificationRequest) error
	LoadStoredAuth(ctx context.Context) error
	RefreshProfile(ctx context.Context) (bool, error)
	SignOut(ctx context.Context) error
}

type authService struct {
	api     AuthAPI
	tokens  TokenStore
	store   *store.Store
	cleanup *Cleanup
	log     logging.Logger
	now     func() time.Time
}

func NewAuthService(a AuthAPI, tokens TokenStore, st *store.Store, cleanup *Cleanup, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	if cleanup == nil {
		cleanup = &Cleanup{}
	}
	return &authService{api: a, tokens: tokens, store: st, cleanup: cleanup, log: log, now: time.Now}
}

func (s *authService) SignUp(ctx context.Context, in *models.SignUpRequest) (*models.AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, store.OpSignUp, func(ctx context.Context) (*models.AuthResult, error) {
		return s.api.SignUp(ctx, in)
	})
}

func (s *authService) SignIn(ctx context.Context, in *models.SignInRequest) (*models.AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, store.OpSignIn, func(ctx context.Context) (*models.AuthResult, error) {
		return s.api.SignIn(ctx, in)
	})
}

func (s *authService) VerifyEmail(ctx context.Context, in *models.VerifyEmailRequest) (*models.AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, store.OpVerifyEmail, func(ctx context.Context) (*models.AuthResult, error) {
		return s.api.VerifyEmail(ctx, in)
	})
}

func (s *authService) ResendVerification(ctx context.Context, in *models.ResendVerificationRequest) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	return s.api.ResendVerification(ctx, in)
}

func (s *authService) authenticate(ctx context.Context, op store.Op, call func(context.Context) (*models.AuthResult, error)) (*models.AuthResult, error) {
	s.store.Dispatch(store.PendingAction(op))

	res, err := call(ctx)
	if err == nil && res != nil && res.Token != "" {
		err = s.tokens.Set(ctx, res.Token)
	}
	if err != nil {
		s.log.Info(ctx, "auth request failed", "op", op, "error", err)
		s.store.Dispatch(store.RejectedAction(op, api.Message(err)))
		return nil, err
	}

	s.store.Dispatch(store.FulfilledAction(op, res))
	return res, nil
}

// LoadStoredAuth restores the session from the persisted token. An expired
// JWT is erased without contacting the server. Otherwise the state becomes
// authenticated with the token alone, and the profile is fetched after.
func (s *authService) LoadStoredAuth(ctx context.Context) error {
	s.store.Dispatch(store.PendingAction(store.OpLoadStoredAuth))

	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.store.Dispatch(store.RejectedAction(store.OpLoadStoredAuth, "Failed to read stored session"))
		return err
	}
	if token == "" {
		s.store.Dispatch(store.FulfilledAction(store.OpLoadStoredAuth, store.StoredAuth{}))
		return nil
	}

	if tokenExpired(token, s.now()) {
		s.log.Info(ctx, "stored token expired, discarding")
		if err := s.tokens.Delete(ctx); err != nil {
			s.log.Warn(ctx, "failed to delete expired token", "error", err)
		}
		s.store.Dispatch(store.FulfilledAction(store.OpLoadStoredAuth, store.StoredAuth{}))
		return nil
	}

	s.store.Dispatch(store.FulfilledAction(store.OpLoadStoredAuth, store.StoredAuth{Token: token}))

	u, err := s.api.Me(ctx)
	if err != nil {
		// on 401 the interceptor has already logged the user out
		if !errors.Is(err, api.ErrUnauthorized) {
			s.store.Dispatch(store.RejectedAction(store.OpLoadStoredAuth, api.Message(err)))
		}
		return err
	}
	s.store.Dispatch(store.SetUser(u))
	return nil
}

// RefreshProfile reloads the current user and reports whether it changed.
func (s *authService) RefreshProfile(ctx context.Context) (bool, error) {
	u, err := s.api.Me(ctx)
	if err != nil {
		return false, err
	}
	return s.store.Dispatch(store.SetUser(u)), nil
}

// SignOut runs the cleanup cascade. The local session ends whether or not
// cleanup succeeded.
func (s *authService) SignOut(ctx context.Context) error {
	s.store.Dispatch(store.PendingAction(store.OpSignOut))

	if err := s.cleanup.Run(ctx); err != nil {
		s.log.Warn(ctx, "sign-out finished with errors", "error", err)
		s.store.Dispatch(store.RejectedAction(store.OpSignOut, api.Message(err)))
		return err
	}
	s.store.Dispatch(store.FulfilledAction(store.OpSignOut, nil))
	return nil
}

// UnauthorizedHandler builds the callback the API client runs after a 401:
// log out locally and return to the entry screen.
func UnauthorizedHandler(st *store.Store, nav Navigator) api.UnauthorizedHandler {
	return func(context.Context) {
		st.Dispatch(store.Logout())
		if nav != nil {
			nav.Replace(EntryRoute)
		}
	}
}

// tokenExpired reports whether token is a JWT whose exp is not after now.
// Opaque tokens and JWTs without exp never count as expired; the signature
// is not checked, the server does that.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
