package views

import (
	"html/template"
	"io"

	"github.com/algenord/portal/session"
)

// Page is the document a committed view is placed in.
type Page struct {
	Content       template.HTML
	Authenticated bool
	User          *session.User
}

// IsAdmin reports whether the signed-in user may manage users.
func (p Page) IsAdmin() bool {
	return p.User.HasRole(RoleAdmin)
}

// WriteLayout writes the full page document to w.
func WriteLayout(w io.Writer, p Page) error {
	return execute(w, "layout", p)
}
