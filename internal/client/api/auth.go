package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

func (c *HTTPClient) SignUp(ctx context.Context, in *models.SignUpRequest) (*models.AuthResult, error) {
	res, err := do[models.AuthResult](ctx, c, http.MethodPost, "/auth/signup", in)
	if err != nil {
		return nil, err
	}
	c.startSession(res)
	return res, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, in *models.SignInRequest) (*models.AuthResult, error) {
	res, err := do[models.AuthResult](ctx, c, http.MethodPost, "/auth/signin", in)
	if err != nil {
		return nil, err
	}
	c.startSession(res)
	return res, nil
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, in *models.VerifyEmailRequest) (*models.AuthResult, error) {
	res, err := do[models.AuthResult](ctx, c, http.MethodPost, "/auth/verify-email", in)
	if err != nil {
		return nil, err
	}
	c.invalidate("/user/")
	c.startSession(res)
	return res, nil
}

func (c *HTTPClient) ResendVerification(ctx context.Context, in *models.ResendVerificationRequest) error {
	return c.call(ctx, http.MethodPost, "/auth/resend-verification", in, nil)
}

// Me returns the user of the current session. It is never cached.
func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	return do[models.User](ctx, c, http.MethodGet, "/auth/me", nil)
}

// startSession drops every cached read once a call hands out a token.
func (c *HTTPClient) startSession(res *models.AuthResult) {
	if res != nil && res.Token != "" {
		c.clearCache()
	}
}

// SignOut ends the server-side session of token. The token is passed in
// because local storage is already wiped when this runs. A 401 is returned
// as an error without running the unauthorized handler.
func (c *HTTPClient) SignOut(ctx context.Context, token string) error {
	r, err := newRequest(http.MethodPost, "/auth/signout", nil)
	if err != nil {
		return err
	}
	r.bearer = &token
	r.authHandled = true
	return c.roundTrip(ctx, r, nil)
}
