package views

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/router"
	"github.com/algenord/portal/session"
	"github.com/algenord/portal/storage/memory"
)

type fakeAPI struct {
	projects []gateway.Project
	project  *gateway.Project
	users    []gateway.User
	user     *gateway.User
	login    *gateway.LoginResponse
	err      error

	calls        []string
	filters      gateway.ProjectFilters
	public       bool
	projectInput gateway.ProjectInput
	uploads      []uploaded
	userInput    gateway.UserInput
	meta         gateway.ImageMetadata
}

type uploaded struct {
	Filename string
	Content  string
	Metadata gateway.ImageMetadata
}

func (f *fakeAPI) record(call string, images []gateway.ImageUpload) error {
	f.calls = append(f.calls, call)
	for _, img := range images {
		b, _ := io.ReadAll(img.Content)
		f.uploads = append(f.uploads, uploaded{img.Filename, string(b), img.Metadata})
	}
	return f.err
}

func (f *fakeAPI) ListProjects(_ context.Context, filters gateway.ProjectFilters, public bool) ([]gateway.Project, error) {
	f.filters, f.public = filters, public
	return f.projects, f.record("ListProjects", nil)
}

func (f *fakeAPI) GetProject(_ context.Context, id string) (*gateway.Project, error) {
	return f.project, f.record("GetProject "+id, nil)
}

func (f *fakeAPI) CreateProject(_ context.Context, in gateway.ProjectInput, images []gateway.ImageUpload) (*gateway.Project, error) {
	f.projectInput = in
	return f.project, f.record("CreateProject", images)
}

func (f *fakeAPI) UpdateProject(_ context.Context, id string, in gateway.ProjectInput) (*gateway.Project, error) {
	f.projectInput = in
	return f.project, f.record("UpdateProject "+id, nil)
}

func (f *fakeAPI) DeleteProject(_ context.Context, id string) error {
	return f.record("DeleteProject "+id, nil)
}

func (f *fakeAPI) UploadProjectImages(_ context.Context, id string, images []gateway.ImageUpload) error {
	return f.record("UploadProjectImages "+id, images)
}

func (f *fakeAPI) UpdateImageMetadata(_ context.Context, projectID, imageID string, meta gateway.ImageMetadata) error {
	f.meta = meta
	return f.record("UpdateImageMetadata "+projectID+" "+imageID, nil)
}

func (f *fakeAPI) DeleteImage(_ context.Context, projectID, imageID string) error {
	return f.record("DeleteImage "+projectID+" "+imageID, nil)
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) (*gateway.LoginResponse, error) {
	if err := f.record("Login "+username, nil); err != nil {
		return nil, err
	}
	return f.login, nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]gateway.User, error) {
	return f.users, f.record("ListUsers", nil)
}

func (f *fakeAPI) GetUser(_ context.Context, id string) (*gateway.User, error) {
	return f.user, f.record("GetUser "+id, nil)
}

func (f *fakeAPI) CreateUser(_ context.Context, in gateway.UserInput) (*gateway.User, error) {
	f.userInput = in
	return f.user, f.record("CreateUser", nil)
}

func (f *fakeAPI) UpdateUser(_ context.Context, id string, in gateway.UserInput) (*gateway.User, error) {
	f.userInput = in
	return f.user, f.record("UpdateUser "+id, nil)
}

func (f *fakeAPI) DeleteUser(_ context.Context, id string) error {
	return f.record("DeleteUser "+id, nil)
}

type fakeLocation struct{ hash string }

func (l *fakeLocation) Hash() string         { return l.hash }
func (l *fakeLocation) Navigate(path string) { l.hash = "#" + path }

type fakeContainer struct{ html string }

func (c *fakeContainer) Commit(html string) { c.html = html }

type env struct {
	api       *fakeAPI
	sess      *session.Store
	durable   *memory.Store
	short     *memory.Store
	loc       *fakeLocation
	container *fakeContainer
	router    *router.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		api:       &fakeAPI{},
		durable:   memory.NewStore(),
		short:     memory.NewStore(),
		loc:       &fakeLocation{},
		container: &fakeContainer{},
	}
	e.sess = session.New(e.durable, e.short)
	e.router = router.New(router.Config{
		Routes: Routes(Deps{
			API:          e.api,
			Session:      e.sess,
			Durable:      e.durable,
			ShortLived:   e.short,
			Location:     e.loc,
			AssetBaseURL: "http://backend.test",
		}),
		Public:    Public,
		Sessions:  e.sess,
		Location:  e.loc,
		Container: e.container,
	})
	return e
}

func token(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func (e *env) signIn(t *testing.T, roles ...string) {
	t.Helper()
	require.NoError(t, e.sess.SetToken(context.Background(), token(t, "alice", roles...)))
}

func (e *env) visit(path string) router.Outcome {
	e.loc.hash = "#" + path
	return e.router.Dispatch(context.Background())
}

func (e *env) submit(path string, form *router.Form) router.Outcome {
	e.loc.hash = "#" + path
	return e.router.Submit(context.Background(), form)
}

func (e *env) path() string {
	return strings.TrimPrefix(e.loc.hash, "#")
}

func (e *env) pendingFlash(t *testing.T) Flash {
	t.Helper()
	raw, err := e.short.Get(context.Background(), flashKey)
	require.NoError(t, err)
	var f Flash
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func values(kv ...string) *router.Form {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return &router.Form{Values: v}
}

// multipartForm builds a parsed form the way the portal receives one.
func multipartForm(t *testing.T, fields map[string]string, files map[string]string) *router.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	mf, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { mf.RemoveAll() })
	return &router.Form{Values: url.Values(mf.Value), Files: mf.File}
}

func sampleProject() *gateway.Project {
	return &gateway.Project{
		ID:            7,
		Title:         "Terrasse i Aarhus",
		Description:   "Grøn belægning fjernet",
		WorkType:      WorkWoodenDeck,
		CustomerType:  CustomerPrivate,
		ExecutionDate: "2024-05-17",
		Images: []gateway.Image{
			{ID: 1, URL: "/uploads/hero.jpg", ImageType: gateway.ImageAfter, IsFeatured: true},
			{ID: 2, URL: "/uploads/before.jpg", ImageType: gateway.ImageBefore},
			{ID: 3, URL: "/uploads/after.jpg", ImageType: gateway.ImageAfter},
		},
	}
}
