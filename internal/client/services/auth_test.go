package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/api"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/cache"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/storage"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/store"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	result *models.AuthResult
	err    error
	me     *models.User
	meErr  error
	meHits int
}

func (f *fakeAPI) SignUp(context.Context, *models.SignUpRequest) (*models.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAPI) SignIn(context.Context, *models.SignInRequest) (*models.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAPI) VerifyEmail(context.Context, *models.VerifyEmailRequest) (*models.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeAPI) ResendVerification(context.Context, *models.ResendVerificationRequest) error {
	return f.err
}

func (f *fakeAPI) Me(context.Context) (*models.User, error) {
	f.meHits++
	return f.me, f.meErr
}

type memTokens struct {
	mu     sync.Mutex
	token  string
	getErr error
}

func (m *memTokens) Get(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.getErr
}

func (m *memTokens) Set(_ context.Context, t string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
	return nil
}

func (m *memTokens) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

type fakeNav struct{ routes []string }

func (n *fakeNav) Replace(route string) { n.routes = append(n.routes, route) }

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

var alice = &models.User{ID: "u1", Email: "alice@example.com", FirstName: "Alice"}

func TestSignIn_PersistsTokenAndAuthenticates(t *testing.T) {
	a := &fakeAPI{result: &models.AuthResult{User: alice, Token: "tok"}}
	tokens := &memTokens{}
	st := store.New(nil)
	svc := NewAuthService(a, tokens, st, nil, nil)

	_, err := svc.SignIn(context.Background(), &models.SignInRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "tok", tokens.token)
	s := st.State()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "Alice", s.User.FirstName)
}

func TestSignIn_RejectedRecordsMessage(t *testing.T) {
	a := &fakeAPI{err: &api.Error{Message: "Invalid credentials", Status: 401}}
	st := store.New(nil)
	svc := NewAuthService(a, &memTokens{}, st, nil, nil)

	_, err := svc.SignIn(context.Background(), &models.SignInRequest{Email: "alice@example.com", Password: "bad"})
	require.Error(t, err)

	s := st.State()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, "Invalid credentials", s.Error)
}

func TestSignIn_ValidationFailsBeforeDispatch(t *testing.T) {
	st := store.New(nil)
	var changes int
	st.Subscribe(func(store.AuthState) { changes++ })
	svc := NewAuthService(&fakeAPI{}, &memTokens{}, st, nil, nil)

	_, err := svc.SignIn(context.Background(), &models.SignInRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Zero(t, changes)
}

func TestSignUp_RequiresVerification(t *testing.T) {
	a := &fakeAPI{result: &models.AuthResult{User: alice, RequiresVerification: true}}
	tokens := &memTokens{}
	st := store.New(nil)
	svc := NewAuthService(a, tokens, st, nil, nil)

	res, err := svc.SignUp(context.Background(), &models.SignUpRequest{Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.True(t, res.RequiresVerification)
	assert.Empty(t, tokens.token)
	assert.False(t, st.State().IsAuthenticated)
	assert.NotNil(t, st.State().User)
}

func TestLoadStoredAuth_NoToken(t *testing.T) {
	a := &fakeAPI{}
	st := store.New(nil)
	svc := NewAuthService(a, &memTokens{}, st, nil, nil)

	require.NoError(t, svc.LoadStoredAuth(context.Background()))
	assert.Equal(t, store.AuthState{}, st.State())
	assert.Zero(t, a.meHits)
}

func TestLoadStoredAuth_ExpiredTokenSkipsNetwork(t *testing.T) {
	a := &fakeAPI{me: alice}
	tokens := &memTokens{token: signedJWT(t, time.Now().Add(-time.Hour))}
	st := store.New(nil)
	svc := NewAuthService(a, tokens, st, nil, nil)

	require.NoError(t, svc.LoadStoredAuth(context.Background()))
	assert.Zero(t, a.meHits)
	assert.Empty(t, tokens.token)
	assert.False(t, st.State().IsAuthenticated)
}

func TestLoadStoredAuth_TokenThenProfile(t *testing.T) {
	a := &fakeAPI{me: alice}
	tok := signedJWT(t, time.Now().Add(time.Hour))
	st := store.New(nil)

	var states []store.AuthState
	st.Subscribe(func(s store.AuthState) { states = append(states, s) })
	svc := NewAuthService(a, &memTokens{token: tok}, st, nil, nil)

	require.NoError(t, svc.LoadStoredAuth(context.Background()))

	require.Len(t, states, 3)
	assert.True(t, states[0].IsLoading)
	assert.True(t, states[1].IsAuthenticated)
	assert.Nil(t, states[1].User, "token-only state comes first")
	assert.Equal(t, "Alice", states[2].User.FirstName)
	assert.Equal(t, tok, st.State().Token)
}

func TestLoadStoredAuth_OpaqueTokenIsNotExpired(t *testing.T) {
	a := &fakeAPI{me: alice}
	svc := NewAuthService(a, &memTokens{token: "opaque-session-id"}, store.New(nil), nil, nil)

	require.NoError(t, svc.LoadStoredAuth(context.Background()))
	assert.Equal(t, 1, a.meHits)
}

func TestLoadStoredAuth_ProfileFailureRejects(t *testing.T) {
	a := &fakeAPI{meErr: &api.Error{Message: "Server error", Status: 500, Retryable: true}}
	st := store.New(nil)
	svc := NewAuthService(a, &memTokens{token: "opaque"}, st, nil, nil)

	require.Error(t, svc.LoadStoredAuth(context.Background()))
	assert.False(t, st.State().IsAuthenticated)
	assert.Equal(t, "Server error", st.State().Error)
}

func TestRefreshProfile_NoChangeNoNotify(t *testing.T) {
	a := &fakeAPI{me: alice.Clone()}
	st := store.New(nil)
	st.Dispatch(store.FulfilledAction(store.OpSignIn, &models.AuthResult{User: alice, Token: "t"}))
	svc := NewAuthService(a, &memTokens{}, st, nil, nil)

	changed, err := svc.RefreshProfile(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	a.me = &models.User{ID: "u1", Email: "alice@example.com", FirstName: "Alicia"}
	changed, err = svc.RefreshProfile(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSignOut_ClearsStateEvenWhenEveryStepFails(t *testing.T) {
	log := &callLog{}
	boom := errors.New("boom")
	c := &Cleanup{
		Platform: platform.IOS,
		Cache:    fakeCache{log},
		Async:    fakeClearer{name: "async", log: log, err: boom},
		Secure:   fakeSecure{log: log, err: func(string) error { return boom }},
		Tokens:   &memTokens{token: "t"},
		Remote:   fakeRemote{log: log, err: boom},
	}
	st := store.New(nil)
	st.Dispatch(store.FulfilledAction(store.OpSignIn, &models.AuthResult{User: alice, Token: "t"}))
	svc := NewAuthService(&fakeAPI{}, &memTokens{}, st, c, nil)

	err := svc.SignOut(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	s := st.State()
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.NotEmpty(t, s.Error)
}

func TestUnauthorizedHandler(t *testing.T) {
	st := store.New(nil)
	st.Dispatch(store.FulfilledAction(store.OpSignIn, &models.AuthResult{User: alice, Token: "t"}))
	nav := &fakeNav{}

	UnauthorizedHandler(st, nav)(context.Background())

	assert.False(t, st.State().IsAuthenticated)
	assert.Equal(t, []string{EntryRoute}, nav.routes)
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, tokenExpired(signedJWT(t, now.Add(-time.Second)), now))
	assert.False(t, tokenExpired(signedJWT(t, now.Add(time.Minute)), now))
	assert.False(t, tokenExpired("not.a.jwt", now))
	assert.False(t, tokenExpired("", now))
}

// TestUnauthorizedFlow_EndToEnd wires the real client, storage and store: a
// 401 erases the token, logs out and navigates to the entry screen.
func TestUnauthorizedFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"Session expired"}`))
	}))
	defer srv.Close()

	b, err := storage.Open(ctx, filepath.Join(t.TempDir(), "client.db"), []byte("device"))
	require.NoError(t, err)
	defer b.Close()

	tokens := storage.NewTokenStorage(b, platform.Android)
	require.NoError(t, tokens.Set(ctx, "opaque"))

	st := store.New(nil)
	nav := &fakeNav{}
	client, err := api.New(srv.URL, tokens, api.WithUnauthorizedHandler(UnauthorizedHandler(st, nav)))
	require.NoError(t, err)

	svc := NewAuthService(client, tokens, st, nil, nil)
	err = svc.LoadStoredAuth(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)

	tok, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.False(t, st.State().IsAuthenticated)
	assert.Equal(t, []string{EntryRoute}, nav.routes)
}

// TestSignOut_EndToEnd_Web clears real web storage, the cache and the
// server session.
func TestSignOut_EndToEnd_Web(t *testing.T) {
	ctx := context.Background()
	var (
		signouts int
		auth     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/signout" {
			signouts++
			auth = r.Header.Get("Authorization")
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	b, err := storage.Open(ctx, filepath.Join(t.TempDir(), "client.db"), []byte("device"))
	require.NoError(t, err)
	defer b.Close()

	tokens := storage.NewTokenStorage(b, platform.Web)
	require.NoError(t, tokens.Set(ctx, "tok"))
	require.NoError(t, b.Async.Set(ctx, "draft_meal", []byte("{}")))

	q := cache.New(time.Minute)
	q.Set("/user/profile", alice)

	client, err := api.New(srv.URL, tokens, api.WithCache(q))
	require.NoError(t, err)

	st := store.New(nil)
	st.Dispatch(store.FulfilledAction(store.OpSignIn, &models.AuthResult{User: alice, Token: "tok"}))
	cleanup := &Cleanup{Platform: platform.Web, Cache: q, Async: b.Async, Secure: b.Secure, Local: b.Local, Tokens: tokens, Remote: client}
	svc := NewAuthService(client, tokens, st, cleanup, nil)

	require.NoError(t, svc.SignOut(ctx))

	tok, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	v, err := b.Async.Get(ctx, "draft_meal")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Zero(t, q.Len())
	assert.Equal(t, 1, signouts)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, store.AuthState{}, st.State())
}

// TestSignOut_EndToEnd_NativeSendsSessionToken runs against a server that
// rejects sign-out without a bearer. The session must close cleanly and the
// unauthorized path must stay silent.
func TestSignOut_EndToEnd_NativeSendsSessionToken(t *testing.T) {
	ctx := context.Background()
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/signout" {
			auth = append(auth, r.Header.Get("Authorization"))
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":"No token"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	b, err := storage.Open(ctx, filepath.Join(t.TempDir(), "client.db"), []byte("device"))
	require.NoError(t, err)
	defer b.Close()

	tokens := storage.NewTokenStorage(b, platform.IOS)
	require.NoError(t, tokens.Set(ctx, "tok"))

	st := store.New(nil)
	nav := &fakeNav{}
	client, err := api.New(srv.URL, tokens, api.WithUnauthorizedHandler(UnauthorizedHandler(st, nav)))
	require.NoError(t, err)

	st.Dispatch(store.FulfilledAction(store.OpSignIn, &models.AuthResult{User: alice, Token: "tok"}))
	cleanup := &Cleanup{Platform: platform.IOS, Async: b.Async, Secure: b.Secure, Tokens: tokens, Remote: client}
	svc := NewAuthService(client, tokens, st, cleanup, nil)

	require.NoError(t, svc.SignOut(ctx))

	assert.Equal(t, []string{"Bearer tok"}, auth)
	assert.Empty(t, nav.routes)
	tok, err := tokens.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Equal(t, store.AuthState{}, st.State())
}
