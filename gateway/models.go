package gateway

import "io"

// Image types used by the backend.
const (
	ImageBefore = "BEFORE"
	ImageAfter  = "AFTER"
)

// Image is one picture attached to a project.
type Image struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	ImageType  string `json:"imageType"`
	IsFeatured bool   `json:"isFeatured"`
}

// Project is a portfolio entry.
type Project struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	WorkType      string  `json:"workType"`
	CustomerType  string  `json:"customerType"`
	ExecutionDate string  `json:"executionDate"`
	CreationDate  string  `json:"creationDate,omitempty"`
	Images        []Image `json:"images,omitempty"`
}

// Featured returns the project's featured image, or its first image.
func (p *Project) Featured() (Image, bool) {
	for _, img := range p.Images {
		if img.IsFeatured {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}

// Thumbnail returns the first non-featured image, falling back to the first image.
func (p *Project) Thumbnail() (Image, bool) {
	for _, img := range p.Images {
		if !img.IsFeatured {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}

// Gallery splits non-featured images into before and after groups.
func (p *Project) Gallery() (before, after []Image) {
	for _, img := range p.Images {
		if img.IsFeatured {
			continue
		}
		switch img.ImageType {
		case ImageBefore:
			before = append(before, img)
		case ImageAfter:
			after = append(after, img)
		}
	}
	return before, after
}

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	WorkType      string `json:"workType"`
	CustomerType  string `json:"customerType"`
	ExecutionDate string `json:"executionDate"`
}

// ImageMetadata describes an uploaded or existing image.
type ImageMetadata struct {
	ImageType  string `json:"imageType"`
	IsFeatured bool   `json:"isFeatured"`
}

// ImageUpload is one file to send with its metadata.
type ImageUpload struct {
	Filename string
	Content  io.Reader
	Metadata ImageMetadata
}

// ProjectFilters narrows a project listing. Empty fields are omitted.
type ProjectFilters struct {
	WorkType     string `json:"workType,omitempty"`
	CustomerType string `json:"customerType,omitempty"`
	Sort         string `json:"sortOrder,omitempty"`
}

// User is a portal administrator account.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

// UserInput creates or updates a user. An empty password leaves it unchanged.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
}
