package gateway

import (
	"context"
	"net/http"
	"net/url"
)

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// Login exchanges credentials for a token. Status handling is the same as
// for every other call, so a 401 still clears the session and navigates to
// the login route; callers treat any failure as rejected credentials.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.DoJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"username": username, "password": password},
		Public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.DoJSON(ctx, Request{Path: "/users"}, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	if err := c.DoJSON(ctx, Request{Path: userPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	var out User
	if err := c.DoJSON(ctx, Request{Method: http.MethodPost, Path: "/users", Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) (*User, error) {
	var out User
	if err := c.DoJSON(ctx, Request{Method: http.MethodPut, Path: userPath(id), Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: userPath(id)})
	return err
}
