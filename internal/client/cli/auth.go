package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/cryptox"
)

// SignUp prompts for email, password and name and creates an account. When
// the backend asks for email verification the user is pointed to 'verify'.
func (a *App) SignUp(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	first, err := getSimpleText(a.reader, "First name (optional)", a.out)
	if err != nil {
		return err
	}

	res, err := a.auth.SignUp(ctx, &models.SignUpRequest{Email: email, Password: string(password), FirstName: first})
	if err != nil {
		return err
	}

	if res.Token == "" {
		a.mu.Lock()
		a.pendingEmail = email
		a.mu.Unlock()
		fmt.Fprintln(a.out, "Account created. Check your email for a verification code, then type 'verify'.")
		return nil
	}
	fmt.Fprintln(a.out, "Account created. You are signed in.")
	return nil
}

func (a *App) SignIn(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	res, err := a.auth.SignIn(ctx, &models.SignInRequest{Email: email, Password: string(password)})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s!\n", displayName(res.User, email))
	return nil
}

// Verify submits the emailed verification code. The email defaults to the
// one used in the last sign-up.
func (a *App) Verify(ctx context.Context) error {
	a.mu.Lock()
	email := a.pendingEmail
	a.mu.Unlock()

	if email == "" {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	code, err := getSimpleText(a.reader, "Enter the 6-digit code", a.out)
	if err != nil {
		return err
	}

	res, err := a.auth.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: email, Code: code})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.pendingEmail = ""
	a.mu.Unlock()
	fmt.Fprintf(a.out, "Email verified. Welcome, %s!\n", displayName(res.User, email))
	return nil
}

// Me refreshes and prints the profile.
func (a *App) Me(ctx context.Context) error {
	if _, err := a.auth.RefreshProfile(ctx); err != nil {
		return err
	}
	u := a.store.State().User
	if u == nil {
		return nil
	}

	fmt.Fprintf(a.out, "Email:      %s\n", u.Email)
	fmt.Fprintf(a.out, "Name:       %s\n", displayName(u, "-"))
	fmt.Fprintf(a.out, "Verified:   %t\n", u.EmailVerified)
	fmt.Fprintf(a.out, "Onboarded:  %t\n", u.OnboardingCompleted)
	return nil
}

// SignOut ends the session. Local state is cleared even when some cleanup
// step fails, so the failure is only reported.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		fmt.Fprintln(a.out, "Signed out. Some cleanup steps failed and were logged.")
		return nil
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func displayName(u *models.User, fallback string) string {
	if u == nil {
		return fallback
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Email != "":
		return u.Email
	}
	return fallback
}
