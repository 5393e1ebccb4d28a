package client

import (
	"context"
	"net/http"

	"fieldsync/internal/domain"
)

func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	var out domain.LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/Auth/login", req, &out, "user", req.UserName); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &domain.AuthError{Op: "login", Message: "no token in response"}
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req *domain.RegisterRequest) error {
	return c.do(ctx, "register", http.MethodPost, "/api/Auth/register", req, nil, "user", req.UserName)
}

func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, "get profile", http.MethodGet, "/api/User/profile", nil, &out, "profile", "me"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	return c.do(ctx, "update profile", http.MethodPut, "/api/User/profile", profile, nil, "profile", "me")
}
