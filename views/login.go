package views

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/algenord/portal/router"
)

const (
	msgLoginRequired = "Username and password are required."
	msgLoginRejected = "Invalid username or password. Please try again."
	msgNoToken       = "No token received from server."
)

// login shows the login form. An already authenticated visitor is sent to
// the front page; the placeholder returned here is never committed.
func (v *views) login(ctx context.Context, _ router.Params) (router.Result, error) {
	if v.session.IsAuthenticated(ctx) {
		v.loc.Navigate("/")
		return router.Result{HTML: "<div>Redirecting...</div>"}, nil
	}
	return v.page(ctx, "login", nil)
}

// loginSubmit exchanges the credentials for a token and continues to the
// route that required authentication, or the front page.
func (v *views) loginSubmit(ctx context.Context, _ router.Params, form *router.Form) (string, error) {
	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	if username == "" || password == "" {
		v.setFlash(ctx, Flash{Kind: FlashError, Message: msgLoginRequired, Values: map[string]string{"username": username}})
		return "/login", nil
	}

	resp, err := v.api.Login(ctx, username, password)
	if err != nil {
		v.logger.Info("login rejected", zap.String("username", username), zap.Error(err))
		v.setFlash(ctx, Flash{Kind: FlashError, Message: msgLoginRejected, Values: map[string]string{"username": username}})
		return "/login", nil
	}
	if resp.Token == "" {
		v.setFlash(ctx, Flash{Kind: FlashError, Message: msgNoToken, Values: map[string]string{"username": username}})
		return "/login", nil
	}
	if err := v.session.SetToken(ctx, resp.Token); err != nil {
		return "", err
	}

	if next, ok := v.session.TakePendingRedirect(ctx); ok {
		return next, nil
	}
	return "/", nil
}
