package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

const pathMeals = "/nutrition/meals"

// mealLogChanged lists every cached read that depends on logged meals.
var mealLogChanged = []string{"/nutrition/", "/calendar/", "/daily-goals/progress"}

func (c *HTTPClient) LogMeal(ctx context.Context, in *models.Meal) (*models.Meal, error) {
	m, err := do[models.Meal](ctx, c, http.MethodPost, pathMeals, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(mealLogChanged...)
	return m, nil
}

// GetMeals lists the meals logged on date (YYYY-MM-DD); an empty date means
// today on the server side.
func (c *HTTPClient) GetMeals(ctx context.Context, date string) ([]models.Meal, error) {
	out, err := do[[]models.Meal](ctx, c, http.MethodGet, withQuery(pathMeals, "date", date), nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *HTTPClient) DeleteMeal(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, pathMeals+"/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidate(mealLogChanged...)
	return nil
}

func (c *HTTPClient) GetDailySummary(ctx context.Context, date string) (*models.DailySummary, error) {
	return do[models.DailySummary](ctx, c, http.MethodGet, withQuery("/nutrition/summary", "date", date), nil)
}

func (c *HTTPClient) SearchFoods(ctx context.Context, query string) ([]models.Food, error) {
	out, err := do[[]models.Food](ctx, c, http.MethodGet, withQuery("/nutrition/foods/search", "q", query), nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}
