package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

const (
	pathMealPlans       = "/meal-plans"
	pathCurrentMealPlan = "/meal-plans/current"
)

func (c *HTTPClient) GenerateMealPlan(ctx context.Context, in *models.MealPlanRequest) (*models.MealPlan, error) {
	p, err := do[models.MealPlan](ctx, c, http.MethodPost, pathMealPlans+"/generate", in)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathMealPlans)
	return p, nil
}

func (c *HTTPClient) GetCurrentMealPlan(ctx context.Context) (*models.MealPlan, error) {
	return cached[models.MealPlan](ctx, c, pathCurrentMealPlan)
}

func (c *HTTPClient) ListMealPlans(ctx context.Context) ([]models.MealPlan, error) {
	out, err := do[[]models.MealPlan](ctx, c, http.MethodGet, pathMealPlans, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *HTTPClient) GetMealPlan(ctx context.Context, id string) (*models.MealPlan, error) {
	return do[models.MealPlan](ctx, c, http.MethodGet, pathMealPlans+"/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) DeleteMealPlan(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, pathMealPlans+"/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidate(pathMealPlans)
	return nil
}
