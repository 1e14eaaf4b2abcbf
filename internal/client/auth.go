package client

import (
	"context"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
)

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	var res model.AuthResult
	if err := c.do(ctx, "auth.login", c.layout.auth("login"), creds, &res, ""); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, apperr.New(apperr.Server, "auth.login", "response did not include a token")
	}
	res.User = res.User.WithAvatar()
	return &res, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	var res model.AuthResult
	if err := c.do(ctx, "auth.register", c.layout.auth("register"), reg, &res, ""); err != nil {
		return nil, err
	}
	res.User = res.User.WithAvatar()
	return &res, nil
}

// Me resolves token to its user.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.Unauthorized, "auth.me", "no token")
	}
	var u model.User
	if err := c.do(ctx, "auth.me", c.layout.auth("me"), nil, &u, token); err != nil {
		return nil, err
	}
	u = u.WithAvatar()
	return &u, nil
}

// Logout asks the backend to revoke token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, "auth.logout", c.layout.auth("logout"), nil, nil, token)
}
