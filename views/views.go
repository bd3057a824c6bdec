// Package views renders the portal's pages and handles the forms they post
// back. Views only talk to the backend through the gateway and only read
// authentication state through the session store.
package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/router"
	"github.com/algenord/portal/session"
	"github.com/algenord/portal/storage"
)

// RoleAdmin is the role that unlocks user management.
const RoleAdmin = "ADMIN"

// API is the set of backend operations the views use. *gateway.Client
// implements it.
type API interface {
	ListProjects(ctx context.Context, filters gateway.ProjectFilters, public bool) ([]gateway.Project, error)
	GetProject(ctx context.Context, id string) (*gateway.Project, error)
	CreateProject(ctx context.Context, in gateway.ProjectInput, images []gateway.ImageUpload) (*gateway.Project, error)
	UpdateProject(ctx context.Context, id string, in gateway.ProjectInput) (*gateway.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UploadProjectImages(ctx context.Context, id string, images []gateway.ImageUpload) error
	UpdateImageMetadata(ctx context.Context, projectID, imageID string, meta gateway.ImageMetadata) error
	DeleteImage(ctx context.Context, projectID, imageID string) error
	Login(ctx context.Context, username, password string) (*gateway.LoginResponse, error)
	ListUsers(ctx context.Context) ([]gateway.User, error)
	GetUser(ctx context.Context, id string) (*gateway.User, error)
	CreateUser(ctx context.Context, in gateway.UserInput) (*gateway.User, error)
	UpdateUser(ctx context.Context, id string, in gateway.UserInput) (*gateway.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Deps carries everything the views of one client need.
type Deps struct {
	API        API
	Session    *session.Store
	Durable    storage.Store
	ShortLived storage.Store
	Location   router.Location
	Logger     *zap.Logger
	// AssetBaseURL is prepended to image URLs the backend returns as
	// absolute paths.
	AssetBaseURL string
}

// Public lists the patterns reachable without logging in.
var Public = []string{"/login", "/projects", "/project/:id", "/"}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

type views struct {
	api       API
	session   *session.Store
	filters   *FilterStore
	flash     storage.Store
	loc       router.Location
	logger    *zap.Logger
	assetBase string
}

// Routes returns the portal's route table in priority order.
// "/admin/users/create" is declared before "/admin/users/:id" so the
// literal segment wins.
func Routes(d Deps) []router.Route {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &views{
		api:       d.API,
		session:   d.Session,
		filters:   NewFilterStore(d.Durable, logger),
		flash:     d.ShortLived,
		loc:       d.Location,
		logger:    logger,
		assetBase: strings.TrimRight(d.AssetBaseURL, "/"),
	}
	return []router.Route{
		{Pattern: "/", View: v.front},
		{Pattern: "/login", View: v.login, Actions: actions(v.loginSubmit)},
		{Pattern: "/projects", View: v.projects, Actions: map[string]router.Action{
			router.DefaultAction: v.projectsFilter,
			"reset":              v.projectsReset,
		}},
		{Pattern: "/project/:id", View: v.presentation},
		{Pattern: "/admin", View: v.dashboard, Actions: map[string]router.Action{
			"delete": v.dashboardDelete,
		}},
		{Pattern: "/create-project", View: v.createProject, Actions: actions(v.createProjectSubmit)},
		{Pattern: "/edit-project/:id", View: v.editProject, Actions: map[string]router.Action{
			router.DefaultAction: v.editProjectSubmit,
			"upload":             v.editProjectUpload,
		}},
		{Pattern: "/edit-project/:id/images/:imageId", View: v.editImage, Actions: map[string]router.Action{
			router.DefaultAction: v.editImageSubmit,
			"replace":            v.editImageReplace,
			"delete":             v.editImageDelete,
		}},
		{Pattern: "/admin/users", View: v.userList, Actions: map[string]router.Action{
			"delete": v.userListDelete,
		}},
		{Pattern: "/admin/users/create", View: v.createUser, Actions: actions(v.createUserSubmit)},
		{Pattern: "/admin/users/:id", View: v.userDetail, Actions: map[string]router.Action{
			"delete": v.userDetailDelete,
		}},
		{Pattern: "/admin/users/:id/edit", View: v.editUser, Actions: actions(v.editUserSubmit)},
	}
}

func actions(submit router.Action) map[string]router.Action {
	return map[string]router.Action{router.DefaultAction: submit}
}

// pageData is what every content template receives.
type pageData struct {
	Flash     *Flash
	User      *session.User
	Data      any
	assetBase string
}

// Or returns the submitted value of field kept from a rejected form, or
// fallback when the form was not rejected.
func (p pageData) Or(field, fallback string) string {
	if p.Flash != nil {
		if v, ok := p.Flash.Values[field]; ok {
			return v
		}
	}
	return fallback
}

// Image resolves an image URL returned by the backend.
func (p pageData) Image(raw string) string {
	return resolveImage(p.assetBase, raw)
}

func resolveImage(base, raw string) string {
	if strings.HasPrefix(raw, "/") && base != "" {
		return base + raw
	}
	return raw
}

func (p pageData) IsAdmin() bool {
	return p.User.HasRole(RoleAdmin)
}

// FieldError returns the validation message for field, if any.
func (p pageData) FieldError(field string) string {
	if p.Flash == nil {
		return ""
	}
	return p.Flash.Fields[field]
}

// Value returns the submitted value of field kept from a rejected form.
func (p pageData) Value(field string) string {
	if p.Flash == nil {
		return ""
	}
	return p.Flash.Values[field]
}

// page renders the named template. A pending flash message is shown once
// and dropped after the page is committed.
func (v *views) page(ctx context.Context, name string, data any) (router.Result, error) {
	pd := pageData{Flash: v.peekFlash(ctx), Data: data, assetBase: v.assetBase}
	if v.session != nil {
		pd.User, _ = v.session.CurrentUser(ctx)
	}
	html, err := render(name, pd)
	if err != nil {
		return router.Result{}, err
	}
	res := router.Result{HTML: html}
	if pd.Flash != nil {
		res.AfterCommit = v.clearFlash
	}
	return res, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func execute(w io.Writer, name string, data any) error {
	return templates.ExecuteTemplate(w, name, data)
}

// backendFailed reports a failed backend call from a form action as a
// flash message on path. An expired session is passed through: the
// gateway has already sent the client to the login route.
func (v *views) backendFailed(ctx context.Context, path string, err error) (string, error) {
	if errors.Is(err, gateway.ErrSessionExpired) {
		return "", err
	}
	v.logger.Warn("backend call failed", zap.String("path", path), zap.Error(err))
	v.setFlash(ctx, Flash{Kind: FlashError, Message: gateway.UserMessage(err)})
	return path, nil
}

func withQuery(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}
