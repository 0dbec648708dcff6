package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// AnalyzeMeal uploads a meal photo for analysis. Every attempt gets its own
// timeout; retryable failures are retried with exponential backoff until
// the attempts run out. All attempts carry the same Idempotency-Key.
func (c *HTTPClient) AnalyzeMeal(ctx context.Context, in *models.MealAnalysisRequest) (*models.MealAnalysis, error) {
	key := uuid.NewString()
	backoff := retry.WithMaxRetries(uint64(c.analysisAttempts-1), retry.NewExponential(c.analysisBackoff))

	var (
		out     *models.MealAnalysis
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		res, err := c.analyzeOnce(ctx, in, key)
		if err == nil {
			out = res
			c.metrics.AnalysisAttempt("ok")
			return nil
		}
		if !IsRetryable(err) || ctx.Err() != nil || attempt >= c.analysisAttempts {
			c.metrics.AnalysisAttempt("error")
			return err
		}

		c.metrics.AnalysisAttempt("retryable")
		c.log.Warn(ctx, "meal analysis attempt failed", "attempt", attempt, "of", c.analysisAttempts, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, analysisError(err)
	}
	return out, nil
}

func (c *HTTPClient) analyzeOnce(ctx context.Context, in *models.MealAnalysisRequest, key string) (*models.MealAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.analysisTimeout)
	defer cancel()

	r, err := newRequest(http.MethodPost, "/nutrition/analyze", in)
	if err != nil {
		return nil, err
	}
	r.header.Set("Idempotency-Key", key)

	var out models.MealAnalysis
	if err := c.roundTrip(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// analysisError turns a final timeout into the message shown for analysis.
// retry.Do reports a cancelled parent context bare, so that is normalized
// here as well.
func analysisError(err error) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = transportError(err)
	}
	if apiErr.Code == CodeTimeout {
		return &Error{Message: msgAnalysisTimeout, Code: CodeAnalysisTimeout, Retryable: true, Err: apiErr}
	}
	return apiErr
}
