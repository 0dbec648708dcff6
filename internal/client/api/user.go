package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

const pathProfile = "/user/profile"

func (c *HTTPClient) GetProfile(ctx context.Context) (*models.User, error) {
	return cached[models.User](ctx, c, pathProfile)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, in *models.ProfileUpdate) (*models.User, error) {
	u, err := do[models.User](ctx, c, http.MethodPut, pathProfile, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathProfile, "/daily-goals")
	return u, nil
}

func (c *HTTPClient) UpdatePreferences(ctx context.Context, in *models.Preferences) (*models.User, error) {
	u, err := do[models.User](ctx, c, http.MethodPut, "/user/preferences", in)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathProfile)
	return u, nil
}

func (c *HTTPClient) CompleteOnboarding(ctx context.Context) (*models.User, error) {
	u, err := do[models.User](ctx, c, http.MethodPost, "/user/onboarding/complete", nil)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathProfile, pathQuestionnaire)
	return u, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if err := c.call(ctx, http.MethodDelete, "/user/account", nil, nil); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Clear()
	}
	return nil
}
