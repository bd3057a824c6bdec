// Package portal is the HTTP surface of the AlgeNord portfolio portal. It
// plays the browser for each visitor: the request path is the location,
// the rendered page is the content container, and every navigation the
// router or gateway performs becomes a 303 redirect.
package portal

import (
	"bytes"
	"errors"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/internal/observability"
	"github.com/algenord/portal/internal/uuid"
	"github.com/algenord/portal/router"
	"github.com/algenord/portal/session"
	"github.com/algenord/portal/storage"
	"github.com/algenord/portal/views"
	"github.com/algenord/portal/web"
)

// ClientCookie names the cookie that identifies a visitor's client state.
const ClientCookie = "portal_client"

const (
	clientCookieMaxAge = 365 * 24 * time.Hour
	maxFormBytes       = 32 << 20
)

// Config wires a Server.
type Config struct {
	// APIBaseURL is the REST backend root.
	APIBaseURL string
	// AssetBaseURL is prepended to image paths returned by the backend.
	AssetBaseURL string
	// HTTPClient is shared by every visitor's gateway.
	HTTPClient *http.Client
	// Durable holds tokens and remembered filters. It is shared by all
	// visitors; each client gets its own key prefix.
	Durable storage.Store
	// ShortLived holds pending redirects and flash messages.
	ShortLived storage.Store
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// SecureCookie marks the client cookie Secure.
	SecureCookie bool
	// TrustedProxies are the peers allowed to report the client address
	// through forwarding headers.
	TrustedProxies []netip.Prefix
}

// Server serves the portal.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	throttle *loginThrottle
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger, throttle: newLoginThrottle(nil)}
}

// Handler returns the portal's HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	static, err := web.Handler()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.cfg.Metrics != nil {
		r.Use(s.cfg.Metrics.Instrument)
	}
	r.Use(securityHeaders(origin(s.cfg.AssetBaseURL)))
	// Forms post back with the client cookie only; reject cross-site posts.
	r.Use(http.NewCrossOriginProtection().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics.Handler())
	}
	r.Handle("/static/*", static)

	r.Post("/logout", s.logout)
	r.Get("/*", s.navigate)
	r.Post("/*", s.submit)
	return r, nil
}

// client is one visitor's runtime for the duration of a request.
type client struct {
	id       string
	sessions *session.Store
	loc      *location
	content  *content
	chrome   *chrome
	router   *router.Router
}

func (s *Server) client(w http.ResponseWriter, r *http.Request) *client {
	id := s.clientID(w, r)
	logger := s.logger.With(zap.String("client", id))

	durable := storage.Scoped(s.cfg.Durable, "client:"+id)
	shortLived := storage.Scoped(s.cfg.ShortLived, "client:"+id)
	sessions := session.New(durable, shortLived, session.WithLogger(logger))

	c := &client{
		id:       id,
		sessions: sessions,
		loc:      newLocation(r.URL),
		content:  &content{},
		chrome:   &chrome{},
	}
	api := gateway.New(s.cfg.APIBaseURL, sessions, c.loc,
		gateway.WithHTTPClient(s.cfg.HTTPClient),
		gateway.WithLogger(logger),
	)
	c.router = router.New(router.Config{
		Routes: views.Routes(views.Deps{
			API:          api,
			Session:      sessions,
			Durable:      durable,
			ShortLived:   shortLived,
			Location:     c.loc,
			Logger:       logger,
			AssetBaseURL: s.cfg.AssetBaseURL,
		}),
		Public:    views.Public,
		Sessions:  sessions,
		Location:  c.loc,
		Container: c.content,
		Chrome:    c.chrome,
		Logger:    logger,
	})
	return c
}

// clientID returns the visitor's client ID, issuing a new one when the
// cookie is missing or malformed.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(ClientCookie); err == nil && uuid.Valid(ck.Value) {
		return ck.Value
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	outcome := c.router.Dispatch(r.Context())
	s.finish(w, r, c, outcome)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	login := r.URL.Path == loginThrottlePath
	ip := clientIP(r, s.cfg.TrustedProxies)
	if login {
		if blocked, retryAfter := s.throttle.check(ip); blocked {
			s.logger.Warn("sign-in throttled", zap.String("ip", ip), zap.Duration("retry_after", retryAfter))
			writeThrottled(w, retryAfter)
			return
		}
	}

	c := s.client(w, r)
	form, err := parseForm(w, r)
	if err != nil {
		s.logger.Info("rejecting form", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	defer form.cleanup()

	outcome := c.router.Submit(r.Context(), form.Form)
	if login {
		if c.sessions.IsAuthenticated(r.Context()) {
			s.throttle.recordSuccess(ip)
		} else {
			s.throttle.recordFailure(ip)
		}
	}
	s.finish(w, r, c, outcome)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	c.sessions.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// finish turns the outcome of a navigation into the response: a redirect
// when the location moved, otherwise the page with the committed content.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, c *client, outcome router.Outcome) {
	if c.loc.navigated {
		http.Redirect(w, r, c.loc.target(), http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	switch outcome {
	case router.NotFound:
		status = http.StatusNotFound
	case router.Failed:
		status = http.StatusInternalServerError
	}
	if !c.content.committed {
		s.logger.Error("navigation ended without content", zap.String("path", r.URL.Path), zap.Stringer("outcome", outcome))
		c.content.Commit(router.ErrorHTML)
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	err := views.WriteLayout(&buf, views.Page{
		Content:       c.content.html,
		Authenticated: c.chrome.authenticated,
		User:          c.chrome.user,
	})
	if err != nil {
		s.logger.Error("rendering layout failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type parsedForm struct {
	*router.Form
	cleanup func()
}

func parseForm(w http.ResponseWriter, r *http.Request) (*parsedForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	err := r.ParseMultipartForm(maxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}
	pf := &parsedForm{Form: &router.Form{Values: r.PostForm}, cleanup: func() {}}
	if r.MultipartForm != nil {
		pf.Files = r.MultipartForm.File
		pf.cleanup = func() { r.MultipartForm.RemoveAll() }
	}
	return pf, nil
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
