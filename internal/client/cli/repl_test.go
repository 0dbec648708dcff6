package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	args     [][]string
	err      error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) SignUp(context.Context) error {
	return f.record("signup", nil)
}
func (f *fakeExec) SignIn(context.Context) error {
	f.loggedIn = true
	return f.record("signin", nil)
}
func (f *fakeExec) Verify(context.Context) error { return f.record("verify", nil) }
func (f *fakeExec) Me(context.Context) error     { return f.record("me", nil) }
func (f *fakeExec) Analyze(_ context.Context, args []string) error {
	return f.record("analyze", args)
}
func (f *fakeExec) Meals(_ context.Context, args []string) error { return f.record("meals", args) }
func (f *fakeExec) LogMeal(context.Context) error                { return f.record("log", nil) }
func (f *fakeExec) Summary(_ context.Context, args []string) error {
	return f.record("summary", args)
}
func (f *fakeExec) Goals(_ context.Context, args []string) error { return f.record("goals", args) }
func (f *fakeExec) Chat(_ context.Context, args []string) error  { return f.record("chat", args) }
func (f *fakeExec) Plan(_ context.Context, args []string) error  { return f.record("plan", args) }
func (f *fakeExec) Calendar(_ context.Context, args []string) error {
	return f.record("calendar", args)
}
func (f *fakeExec) SignOut(context.Context) error {
	f.loggedIn = false
	return f.record("signout", nil)
}

func runLines(t *testing.T, exec execIface, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), exec, func() string { return "status" }, in, &out)
	return out.String()
}

func TestRunREPL_SignInThenCommands(t *testing.T) {
	exec := &fakeExec{}
	out := runLines(t, exec,
		"help",
		"signin",
		"help",
		"analyze lunch.jpg lunch",
		"meals 2026-01-02",
		"summary",
		"chat how much protein?",
		"plan 7",
		"calendar 2026 1",
		"signout",
		"exit",
	)

	assert.Equal(t, []string{"signin", "analyze", "meals", "summary", "chat", "plan", "calendar", "signout"}, exec.calls)
	assert.Equal(t, []string{"lunch.jpg", "lunch"}, exec.args[1])
	assert.Equal(t, []string{"how", "much", "protein?"}, exec.args[4])
	assert.Contains(t, out, helpSignedOut)
	assert.Contains(t, out, helpSignedIn)
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_SignedInCommandsRequireSession(t *testing.T) {
	exec := &fakeExec{}
	out := runLines(t, exec, "meals", "me", "quit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, errSignInRequired.Error())
}

func TestRunREPL_UnknownCommandAndErrors(t *testing.T) {
	exec := &fakeExec{loggedIn: true, err: errors.New("backend down")}
	out := runLines(t, exec, "foobar", "me", "")

	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "Error: backend down")
	assert.Equal(t, []string{"me"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{loggedIn: true}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("me\n")), &out)
	assert.Empty(t, exec.calls)
}
