package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
)

func (c *HTTPClient) GetCalendarMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, &Error{Message: fmt.Sprintf("Invalid month %d", month), Code: CodeInvalidRequest}
	}
	return cached[models.CalendarMonth](ctx, c, fmt.Sprintf("/calendar/%d/%d", year, month))
}

func (c *HTTPClient) GetCalendarDay(ctx context.Context, date string) (*models.CalendarDay, error) {
	return cached[models.CalendarDay](ctx, c, "/calendar/day/"+url.PathEscape(date))
}
