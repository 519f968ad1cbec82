package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/five82/shelf/internal/session"
)

type loginResponse struct {
	LoginStatus bool   `json:"loginStatus"`
	Token       string `json:"token"`
	Role        string `json:"role"`
	Error       string `json:"Error"`
}

// Login exchanges credentials for a session payload. It does not touch the
// session; callers pass the payload to session.Manager.Login.
func (c *Client) Login(ctx context.Context, username, password string) (session.Payload, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return session.Payload{}, &AuthError{Message: "Username and password are required."}
	}

	resp, err := c.execute(ctx, call{
		op:      "login",
		method:  http.MethodPost,
		path:    "/admin/adminlogin",
		public:  true,
		payload: map[string]string{"username": username, "password": password},
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError {
			return session.Payload{}, &AuthError{Message: statusErr.Message}
		}
		return session.Payload{}, err
	}

	var payload loginResponse
	if err := decodeInto(resp.body, &payload); err != nil {
		return session.Payload{}, &TransportError{Op: "login", Err: err}
	}
	if !payload.LoginStatus {
		return session.Payload{}, &AuthError{Message: payload.Error}
	}
	if strings.TrimSpace(payload.Token) == "" {
		return session.Payload{}, &AuthError{Message: "Login succeeded but no token was issued."}
	}
	c.logger.Info("login accepted", "username", username, "role", payload.Role)
	return session.Payload{Token: payload.Token, Role: payload.Role}, nil
}
