package api

import (
	"context"
	"net/http"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string    `json:"token"`
	User  chat.User `json:"user"`
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FullName           string `json:"full_name"`
	Role               string `json:"role"`
	OrganizationalUnit string `json:"organizational_unit,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and installs it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return AuthResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// Register creates an account, returning the fresh token and user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return AuthResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// Logout drops the local token. The backend keeps no session state.
func (c *Client) Logout() {
	c.ClearToken()
}
