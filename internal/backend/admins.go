package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"frost_dispatch/internal/models"
)

// AdminsByRole fetches GET /admin?filter=role||$eq||<role>.
func (c *Client) AdminsByRole(ctx context.Context, s Session, role string) ([]models.Admin, error) {
	q := url.Values{}
	if role != "" {
		q.Set("filter", "role||$eq||"+role)
	}
	var raw json.RawMessage
	if err := c.call(ctx, s, "admin.list", http.MethodGet, "/admin", q, nil, &raw); err != nil {
		return nil, err
	}
	admins, err := decodeList[models.Admin](raw)
	if err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	return admins, nil
}

// CreateAdmin issues POST /admin.
func (c *Client) CreateAdmin(ctx context.Context, s Session, in models.AdminInput) (models.Admin, error) {
	var out models.Admin
	err := c.call(ctx, s, "admin.create", http.MethodPost, "/admin", nil, in, &out)
	return out, err
}

// UpdateAdmin issues PATCH /admin with the target id in the body.
func (c *Client) UpdateAdmin(ctx context.Context, s Session, id uint, in models.AdminInput) (models.Admin, error) {
	body := struct {
		ID uint `json:"id"`
		models.AdminInput
	}{ID: id, AdminInput: in}

	var out models.Admin
	err := c.call(ctx, s, "admin.update", http.MethodPatch, "/admin", nil, body, &out)
	return out, err
}

// ChangeAdminPassword issues POST /admin/:id/change-password.
func (c *Client) ChangeAdminPassword(ctx context.Context, s Session, id uint, password string) error {
	path := fmt.Sprintf("/admin/%d/change-password", id)
	return c.call(ctx, s, "admin.change_password", http.MethodPost, path, nil, map[string]string{"password": password}, nil)
}

// LoginResult is what the auth collaborator returns for valid credentials.
type LoginResult struct {
	Token string       `json:"token"`
	Admin models.Admin `json:"admin"`
}

// Login exchanges credentials for a backend token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, Session{}, "auth.login", http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, fmt.Errorf("login: backend returned no token")
	}
	return out, nil
}
