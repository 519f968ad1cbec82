package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/shelf/internal/library"
)

// ListAdmins returns the administrator accounts.
func (c *Client) ListAdmins(ctx context.Context) ([]library.Admin, error) {
	var payload struct {
		Users []library.Admin `json:"Users"`
	}
	if err := c.doJSON(ctx, call{op: "list admins", method: http.MethodGet, path: "/admin/users"}, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Users {
		payload.Users[i].Password = ""
	}
	return payload.Users, nil
}

// AddAdmin creates an administrator. The account id is generated here, as
// the server expects.
func (c *Client) AddAdmin(ctx context.Context, username, password string) (library.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return library.Admin{}, &library.ValidationError{Fields: missingCredentials(username, password)}
	}
	admin := library.Admin{
		UserID:   library.ID(uuid.NewString()),
		Username: library.Text(username),
		Password: password,
	}
	if err := c.doJSON(ctx, call{op: "add admin", method: http.MethodPost, path: "/admin/add_user", payload: admin}, nil); err != nil {
		return library.Admin{}, err
	}
	admin.Password = ""
	return admin, nil
}

// DeleteAdmin removes the administrator with id.
func (c *Client) DeleteAdmin(ctx context.Context, id library.ID) error {
	if id.IsZero() {
		return fmt.Errorf("user id required")
	}
	return c.doJSON(ctx, call{op: "delete admin", method: http.MethodDelete, path: pathID("/admin/delete_user", id.String())}, nil)
}

// Profile returns the username of the logged-in administrator, or
// "Unknown" when the server does not say.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var payload struct {
		Username string `json:"username"`
		User     *struct {
			Username string `json:"username"`
		} `json:"User"`
	}
	if err := c.doJSON(ctx, call{op: "profile", method: http.MethodGet, path: "/admin/profile"}, &payload); err != nil {
		return "", err
	}
	switch {
	case strings.TrimSpace(payload.Username) != "":
		return payload.Username, nil
	case payload.User != nil && strings.TrimSpace(payload.User.Username) != "":
		return payload.User.Username, nil
	default:
		return "Unknown", nil
	}
}

// ErrPasswordMismatch is returned when the confirmation differs from the
// new password. Nothing is sent.
var ErrPasswordMismatch = errors.New("new password and confirmation do not match")

// ChangePassword changes the logged-in administrator's password.
func (c *Client) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if current == "" || next == "" {
		return &library.ValidationError{Fields: missingPasswords(current, next)}
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.doJSON(ctx, call{op: "change password", method: http.MethodPost, path: "/admin/change-password", payload: body}, nil)
}

func missingCredentials(username, password string) []string {
	var out []string
	if username == "" {
		out = append(out, "username")
	}
	if password == "" {
		out = append(out, "password")
	}
	return out
}

func missingPasswords(current, next string) []string {
	var out []string
	if current == "" {
		out = append(out, "current password")
	}
	if next == "" {
		out = append(out, "new password")
	}
	return out
}
