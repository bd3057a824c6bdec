// Package router turns the client's current location into a rendered view.
//
// A navigation runs to completion in one Dispatch call: the auth guard,
// first-match route lookup, the view, and finally the commit into the
// content container. Overlapping navigations for the same client are not
// coordinated.
package router

import (
	"context"
	"errors"
	"mime/multipart"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/session"
)

// Result is a rendered view. AfterCommit, when set, runs once the HTML is
// in the container and never before.
type Result struct {
	HTML        string
	AfterCommit func(ctx context.Context)
}

// View renders the content for a matched route.
type View func(ctx context.Context, params Params) (Result, error)

// Action handles a form submitted from a rendered view and returns the
// path to navigate to next. An empty path reloads the current route.
type Action func(ctx context.Context, params Params, form *Form) (string, error)

// Route binds a path pattern to its view and form actions.
type Route struct {
	Pattern string
	View    View
	Actions map[string]Action
}

// Location is the client's address bar.
type Location interface {
	Hash() string
	Navigate(path string)
}

// Container receives the committed HTML of a navigation.
type Container interface {
	Commit(html string)
}

// Chrome is the part of the page that reflects authentication state.
type Chrome interface {
	Update(authenticated bool, user *session.User)
}

// Sessions is the slice of the Session Store the router depends on.
type Sessions interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*session.User, bool)
	SetPendingRedirect(ctx context.Context, path string)
}

// Outcome reports how a navigation ended.
type Outcome int

const (
	// Rendered: a view was committed.
	Rendered Outcome = iota
	// Redirected: the location moved elsewhere and nothing was committed.
	Redirected
	// NotFound: no route matched; the not-found panel was committed.
	NotFound
	// Failed: the view or action failed; the error panel was committed.
	Failed
	// Dropped: the location changed while the view was rendering.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case Redirected:
		return "redirected"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

const (
	// NotFoundHTML is committed when no route matches.
	NotFoundHTML = `<div class="error-container">
  <h2>404 - Page not found</h2>
  <p>This page does not exist.</p>
  <a class="btn btn-primary" href="/">Back to front page</a>
</div>`

	// ErrorHTML is committed when a view fails.
	ErrorHTML = `<div class="error-container">
  <h2>An error has occurred!</h2>
  <p>Couldn't load page. Please try again later.</p>
  <a class="btn btn-primary" href="/">Back to front page</a>
</div>`
)

// DefaultAction is the action name used when a form does not name one.
const DefaultAction = "submit"

// Config wires a Router.
type Config struct {
	// Routes is a priority list: the first matching pattern wins.
	Routes []Route
	// Public lists patterns reachable without authentication.
	Public    []string
	Sessions  Sessions
	Location  Location
	Container Container
	Chrome    Chrome
	Logger    *zap.Logger
	LoginPath string
}

// Router dispatches navigations for one client surface.
type Router struct {
	routes    []Route
	public    []string
	sessions  Sessions
	loc       Location
	container Container
	chrome    Chrome
	logger    *zap.Logger
	loginPath string
}

// New builds a Router from cfg.
func New(cfg Config) *Router {
	r := &Router{
		routes:    cfg.Routes,
		public:    cfg.Public,
		sessions:  cfg.Sessions,
		loc:       cfg.Location,
		container: cfg.Container,
		chrome:    cfg.Chrome,
		logger:    cfg.Logger,
		loginPath: cfg.LoginPath,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.loginPath == "" {
		r.loginPath = gateway.DefaultLoginPath
	}
	return r
}

// IsPublicRoute reports whether path matches any public pattern.
func (r *Router) IsPublicRoute(path string) bool {
	for _, pattern := range r.public {
		if _, ok := MatchRoute(pattern, path); ok {
			return true
		}
	}
	return false
}

// CheckAuth lets public paths through. For protected paths it requires an
// authenticated session; otherwise it remembers path as the pending
// redirect target, navigates to the login route and returns false.
func (r *Router) CheckAuth(ctx context.Context, path string) bool {
	if r.IsPublicRoute(path) {
		return true
	}
	if r.sessions.IsAuthenticated(ctx) {
		return true
	}
	r.logger.Debug("authentication required", zap.String("path", path))
	r.sessions.SetPendingRedirect(ctx, r.returnTo(path))
	r.loc.Navigate(r.loginPath)
	return false
}

// returnTo is path plus the query of the current location when the
// location points at path.
func (r *Router) returnTo(path string) string {
	h := strings.TrimPrefix(r.loc.Hash(), "#")
	if CurrentRoute("#"+h) != path {
		return path
	}
	if _, query, ok := strings.Cut(h, "?"); ok && query != "" {
		return path + "?" + query
	}
	return path
}

// Match returns the first route whose pattern matches path.
func (r *Router) Match(path string) (Route, Params, bool) {
	for _, route := range r.routes {
		if params, ok := MatchRoute(route.Pattern, path); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// Dispatch performs one navigation to the current location.
func (r *Router) Dispatch(ctx context.Context) Outcome {
	hash := r.loc.Hash()
	path := CurrentRoute(hash)

	if !r.CheckAuth(ctx, path) {
		return Redirected
	}

	route, params, ok := r.Match(path)
	if !ok {
		r.commit(ctx, NotFoundHTML)
		return NotFound
	}

	res, err := route.View(withQuery(ctx, currentQuery(hash)), params)
	if err != nil {
		return r.fail(ctx, path, "rendering view failed", err)
	}

	if r.stale(path) {
		r.logger.Debug("dropping render for stale route", zap.String("path", path))
		return Dropped
	}

	r.commit(ctx, res.HTML)
	if res.AfterCommit != nil {
		res.AfterCommit(ctx)
	}
	return Rendered
}

// Submit runs the form action named by form on the current route and
// navigates to the path it returns.
func (r *Router) Submit(ctx context.Context, form *Form) Outcome {
	hash := r.loc.Hash()
	path := CurrentRoute(hash)

	if !r.CheckAuth(ctx, path) {
		return Redirected
	}

	route, params, ok := r.Match(path)
	if !ok {
		r.commit(ctx, NotFoundHTML)
		return NotFound
	}
	action, ok := route.Actions[form.Action()]
	if !ok {
		r.commit(ctx, NotFoundHTML)
		return NotFound
	}

	next, err := action(withQuery(ctx, currentQuery(hash)), params, form)
	if err != nil {
		return r.fail(ctx, path, "form action failed", err)
	}
	if next == "" {
		next = path
	}
	r.loc.Navigate(next)
	return Redirected
}

// fail handles a view or action error. An expired session has already
// been handled by the gateway, which navigated to the login route.
func (r *Router) fail(ctx context.Context, path, msg string, err error) Outcome {
	if errors.Is(err, gateway.ErrSessionExpired) {
		return Redirected
	}
	r.logger.Warn(msg, zap.String("path", path), zap.Error(err))
	if r.stale(path) {
		return Dropped
	}
	r.commit(ctx, ErrorHTML)
	return Failed
}

func (r *Router) stale(path string) bool {
	return CurrentRoute(r.loc.Hash()) != path
}

func (r *Router) commit(ctx context.Context, html string) {
	r.container.Commit(html)
	if r.chrome == nil {
		return
	}
	user, _ := r.sessions.CurrentUser(ctx)
	r.chrome.Update(r.sessions.IsAuthenticated(ctx), user)
}

// Routes returns the route table in priority order.
func (r *Router) Routes() []Route {
	return r.routes
}

// Form is a submitted form.
type Form struct {
	Values url.Values
	Files  map[string][]*multipart.FileHeader
}

// Get returns the first value for key.
func (f *Form) Get(key string) string {
	return f.Values.Get(key)
}

// Action returns the action named by the form's "_action" field.
func (f *Form) Action() string {
	if a := f.Values.Get("_action"); a != "" {
		return a
	}
	return DefaultAction
}

type queryKey struct{}

func withQuery(ctx context.Context, q url.Values) context.Context {
	return context.WithValue(ctx, queryKey{}, q)
}

// Query returns the query parameters of the location being rendered.
func Query(ctx context.Context) url.Values {
	q, _ := ctx.Value(queryKey{}).(url.Values)
	if q == nil {
		return url.Values{}
	}
	return q
}
