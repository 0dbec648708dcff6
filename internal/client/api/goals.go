package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

const pathDailyGoals = "/daily-goals"

func (c *HTTPClient) GetDailyGoals(ctx context.Context) (*models.DailyGoals, error) {
	return cached[models.DailyGoals](ctx, c, pathDailyGoals)
}

func (c *HTTPClient) UpdateDailyGoals(ctx context.Context, in *models.DailyGoals) (*models.DailyGoals, error) {
	g, err := do[models.DailyGoals](ctx, c, http.MethodPut, pathDailyGoals, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathDailyGoals, "/calendar/", "/nutrition/summary")
	return g, nil
}

func (c *HTTPClient) GetDailyGoalsProgress(ctx context.Context, date string) (*models.GoalProgress, error) {
	return do[models.GoalProgress](ctx, c, http.MethodGet, withQuery(pathDailyGoals+"/progress", "date", date), nil)
}
