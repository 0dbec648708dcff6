package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

func (c *HTTPClient) SendChatMessage(ctx context.Context, in *models.ChatRequest) (*models.ChatReply, error) {
	return do[models.ChatReply](ctx, c, http.MethodPost, "/chat/messages", in)
}

// GetChatHistory returns up to limit recent messages; limit <= 0 leaves the
// server default.
func (c *HTTPClient) GetChatHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	path := "/chat/history"
	if limit > 0 {
		path = withQuery(path, "limit", strconv.Itoa(limit))
	}
	out, err := do[[]models.ChatMessage](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *HTTPClient) ClearChatHistory(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/chat/history", nil, nil)
}
