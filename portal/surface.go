package portal

import (
	"html/template"
	"net/url"

	"github.com/algenord/portal/session"
)

// location is the client's address for the duration of one request. A
// navigation turns into a redirect once the request is done.
type location struct {
	hash      string
	navigated bool
}

func newLocation(u *url.URL) *location {
	hash := "#" + u.Path
	if u.RawQuery != "" {
		hash += "?" + u.RawQuery
	}
	return &location{hash: hash}
}

func (l *location) Hash() string { return l.hash }

func (l *location) Navigate(path string) {
	l.hash = "#" + path
	l.navigated = true
}

// target is the path a navigation points at.
func (l *location) target() string {
	return l.hash[1:]
}

// content is the main container of the page being built.
type content struct {
	html      template.HTML
	committed bool
}

// Commit places html in the container. View templates are rendered with
// html/template, so the markup is already escaped.
func (c *content) Commit(html string) {
	c.html = template.HTML(html)
	c.committed = true
}

// chrome is the navigation state shown around the content.
type chrome struct {
	authenticated bool
	user          *session.User
}

func (c *chrome) Update(authenticated bool, user *session.User) {
	c.authenticated = authenticated
	c.user = user
}
