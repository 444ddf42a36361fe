package gateway

import (
	"context"
	"errors"
	"net/http"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges username and password for a bearer token. It does not
// persist the token. An unreadable stored credential does not block it, so a
// corrupt store can be replaced by logging in again. A 401 is reported as *AuthenticationError carrying the
// server's message.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "login"

	var resp loginResponse
	_, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		url:    c.endpoint("auth", "login"),
		body:   loginRequest{Username: username, Password: password},
		out:    &resp,

		optionalAuth: true,
	})

	var srvErr *ServerError
	if errors.As(err, &srvErr) && srvErr.StatusCode == http.StatusUnauthorized {
		return "", &AuthenticationError{ServerError: srvErr}
	}
	if err != nil {
		return "", err
	}

	if resp.Token == "" {
		return "", &ServerError{Op: op, StatusCode: http.StatusOK, Message: "login response carried no token"}
	}
	return resp.Token, nil
}
