package pages

import (
	"context"
	"fmt"
)

// LoginPage is the login form of the web client.
type LoginPage struct {
	b *Browser
}

// NewLoginPage returns the login page of the browser.
func NewLoginPage(b *Browser) *LoginPage {
	return &LoginPage{b: b}
}

// LoginWith opens the login form, signs in, and waits for the application
// shell. The password defaults to the username, like the users created by
// the fixtures.
func (l *LoginPage) LoginWith(ctx context.Context, username, password string) error {
	if password == "" {
		password = username
	}
	if err := l.b.Open(ctx, "#/login"); err != nil {
		return err
	}
	user, err := l.b.element(ctx, "username field", loginUsername)
	if err != nil {
		return err
	}
	if err = user.Input(username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	pass, err := l.b.element(ctx, "password field", loginPassword)
	if err != nil {
		return err
	}
	if err = pass.Input(password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}
	button, err := l.b.element(ctx, "login button", loginButton)
	if err != nil {
		return err
	}
	if err = click(button); err != nil {
		return fmt.Errorf("click login: %w", err)
	}
	if _, err = l.b.element(ctx, "application shell", appShell); err != nil {
		return fmt.Errorf("login as %s: %w", username, err)
	}
	log.Debugf("Logged in as %s", username)
	return nil
}
