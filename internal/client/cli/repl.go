package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	Verify(ctx context.Context) error
	Me(ctx context.Context) error
	Analyze(ctx context.Context, args []string) error
	Meals(ctx context.Context, args []string) error
	LogMeal(ctx context.Context) error
	Summary(ctx context.Context, args []string) error
	Goals(ctx context.Context, args []string) error
	Chat(ctx context.Context, args []string) error
	Plan(ctx context.Context, args []string) error
	Calendar(ctx context.Context, args []string) error
	SignOut(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signup, signin, verify, help, exit"
	helpSignedIn  = "Available commands: me, analyze <photo> [meal type], meals [date], log, summary [date], " +
		"goals [date], chat [message], plan [days], calendar [year month], signout, help, exit"
)

var errSignInRequired = errors.New("please sign in first (type 'signin')")

// runREPL reads commands line by line from reader and dispatches them to
// a. It returns on EOF, on "exit"/"quit", or when ctx is done. Command
// errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "nutri %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(w, "Bye!")
			return
		}
		if err := dispatch(ctx, a, cmd, args, w); err != nil {
			fmt.Fprintln(w, "Error:", errorText(err))
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string, w io.Writer) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, helpSignedIn)
		} else {
			fmt.Fprintln(w, helpSignedOut)
		}
		return nil
	case "signup":
		return a.SignUp(ctx)
	case "signin", "login":
		return a.SignIn(ctx)
	case "verify":
		return a.Verify(ctx)
	}

	run, ok := signedInCommands(a, args)[cmd]
	if !ok {
		fmt.Fprintln(w, "Unknown command:", cmd)
		return nil
	}
	if !a.isLoggedIn() {
		return errSignInRequired
	}
	return run(ctx)
}

func signedInCommands(a execIface, args []string) map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"me":       a.Me,
		"analyze":  func(ctx context.Context) error { return a.Analyze(ctx, args) },
		"meals":    func(ctx context.Context) error { return a.Meals(ctx, args) },
		"log":      a.LogMeal,
		"summary":  func(ctx context.Context) error { return a.Summary(ctx, args) },
		"goals":    func(ctx context.Context) error { return a.Goals(ctx, args) },
		"chat":     func(ctx context.Context) error { return a.Chat(ctx, args) },
		"plan":     func(ctx context.Context) error { return a.Plan(ctx, args) },
		"calendar": func(ctx context.Context) error { return a.Calendar(ctx, args) },
		"signout":  a.SignOut,
		"logout":   a.SignOut,
	}
}
