package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// Multipart is a multipart/form-data request body. The gateway recognises it
// by type and leaves the Content-Type to the multipart boundary.
type Multipart struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

// NewMultipart starts an empty multipart body.
func NewMultipart() *Multipart {
	m := &Multipart{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

// AddJSON adds a part named field whose content is v encoded as JSON, the
// equivalent of appending a Blob of type application/json.
func (m *Multipart) AddJSON(field string, v any) {
	if m.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.err = fmt.Errorf("encoding %s: %w", field, err)
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="blob"`, field))
	h.Set("Content-Type", "application/json")
	part, err := m.w.CreatePart(h)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = part.Write(data)
}

// AddFile copies r into a file part.
func (m *Multipart) AddFile(field, filename string, r io.Reader) {
	if m.err != nil {
		return
	}
	part, err := m.w.CreateFormFile(field, filename)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = io.Copy(part, r)
}

// ContentType returns the multipart content type including the boundary.
func (m *Multipart) ContentType() string {
	return m.w.FormDataContentType()
}

func (m *Multipart) reader() (io.Reader, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := m.w.Close(); err != nil {
		return nil, err
	}
	return &m.buf, nil
}
