// ABOUTME: Authentication and account endpoints of the link-indexing API
// ABOUTME: Login, registration, profile and API key management

package client

import (
	"context"
	"errors"
	"net/http"
)

// Me calls GET /auth/me
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login calls POST /auth/login and returns the issued token and the principal
func (c *Client) Login(ctx context.Context, email, password string) (string, *User, error) {
	return c.authenticate(ctx, "/auth/login", LoginRequest{Email: email, Password: password})
}

// Register calls POST /auth/register and returns the issued token and the principal
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (string, *User, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (string, *User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, &Error{Kind: KindDecode, Err: errors.New("response from backend has no token")}
	}
	user := resp.User
	return resp.Token, &user, nil
}

// UpdateProfile calls PUT /auth/profile
func (c *Client) UpdateProfile(ctx context.Context, update *ProfileUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GenerateAPIKey calls POST /auth/api-key. The returned key is shown once.
func (c *Client) GenerateAPIKey(ctx context.Context, name string, permissions []string) (*APIKey, error) {
	if len(permissions) == 0 {
		permissions = DefaultPermissions
	}
	var key APIKey
	if err := c.do(ctx, http.MethodPost, "/auth/api-key", nil, APIKeyRequest{Name: name, Permissions: permissions}, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListAPIKeys calls GET /auth/api-keys
func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := c.do(ctx, http.MethodGet, "/auth/api-keys", nil, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteAPIKey calls DELETE /auth/api-keys/{id}
func (c *Client) DeleteAPIKey(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/auth/api-keys/"+escape(id), nil, nil, nil)
}
