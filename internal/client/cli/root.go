package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/api"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/validation"
)

// Root restores the stored session, starts the connectivity watcher and
// runs the REPL.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to NutriKeeper CLI (type 'help' for commands)")

	if err := a.auth.LoadStoredAuth(ctx); err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Session restored.")
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// errorText renders err for the user: field messages for validation
// errors, the normalized message for API errors.
func errorText(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return api.Message(err)
}
