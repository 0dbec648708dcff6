package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

const pathQuestionnaire = "/questionnaire"

func (c *HTTPClient) GetQuestionnaire(ctx context.Context) (*models.Questionnaire, error) {
	return cached[models.Questionnaire](ctx, c, pathQuestionnaire)
}

// SubmitQuestionnaire stores the answers. The backend recomputes goals from
// them, so goal reads are dropped too.
func (c *HTTPClient) SubmitQuestionnaire(ctx context.Context, in *models.Questionnaire) (*models.Questionnaire, error) {
	q, err := do[models.Questionnaire](ctx, c, http.MethodPost, pathQuestionnaire, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(pathQuestionnaire, pathDailyGoals, pathProfile)
	return q, nil
}
