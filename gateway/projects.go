package gateway

import (
	"context"
	"net/http"
	"net/url"
)

func projectPath(id string) string {
	return "/projects/" + url.PathEscape(id)
}

func imagePath(projectID, imageID string) string {
	return projectPath(projectID) + "/images/" + url.PathEscape(imageID)
}

// ListProjects fetches projects matching filters. The public variant is used
// by the presentation views; the admin listing is authenticated.
func (c *Client) ListProjects(ctx context.Context, filters ProjectFilters, public bool) ([]Project, error) {
	q := url.Values{}
	if filters.WorkType != "" {
		q.Set("workType", filters.WorkType)
	}
	if filters.CustomerType != "" {
		q.Set("customerType", filters.CustomerType)
	}
	if filters.Sort != "" {
		q.Set("sort", filters.Sort)
	}
	var out []Project
	err := c.DoJSON(ctx, Request{Path: "/projects", Query: q, Public: public}, &out)
	return out, err
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var out Project
	if err := c.DoJSON(ctx, Request{Path: projectPath(id), Public: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject posts a new project with its images as one multipart body:
// a "data" JSON part, one "images" part per file and an "imageMetadata"
// JSON array in the same order as the files.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput, images []ImageUpload) (*Project, error) {
	body := NewMultipart()
	body.AddJSON("data", in)
	addImages(body, images)

	var out Project
	if err := c.DoJSON(ctx, Request{Method: http.MethodPost, Path: "/projects", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces the editable fields of a project.
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*Project, error) {
	var out Project
	if err := c.DoJSON(ctx, Request{Method: http.MethodPut, Path: projectPath(id), Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: projectPath(id)})
	return err
}

// UploadProjectImages adds images to an existing project.
func (c *Client) UploadProjectImages(ctx context.Context, id string, images []ImageUpload) error {
	body := NewMultipart()
	addImages(body, images)
	_, err := c.Do(ctx, Request{Method: http.MethodPatch, Path: projectPath(id) + "/images", Body: body})
	return err
}

// UpdateImageMetadata changes the type or featured flag of an image.
func (c *Client) UpdateImageMetadata(ctx context.Context, projectID, imageID string, meta ImageMetadata) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPatch, Path: imagePath(projectID, imageID), Body: meta})
	return err
}

// DeleteImage removes an image from a project.
func (c *Client) DeleteImage(ctx context.Context, projectID, imageID string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: imagePath(projectID, imageID)})
	return err
}

func addImages(body *Multipart, images []ImageUpload) {
	meta := make([]ImageMetadata, 0, len(images))
	for _, img := range images {
		body.AddFile("images", img.Filename, img.Content)
		meta = append(meta, img.Metadata)
	}
	body.AddJSON("imageMetadata", meta)
}
