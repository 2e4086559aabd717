package hiring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const loginPath = "/auth/login"

// AuthResponse is what login and register return.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	UserID      int    `json:"user_id"`
}

// Registration is the register form.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a token using the OAuth2 password grant
// (form-encoded username and password).
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	ep := endpoint{method: http.MethodPost, route: loginPath, path: loginPath}
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.url(loginPath),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)

	c.logger.Debug("make request", zap.String("method", ep.method), zap.String("url", cfg.Endpoint.TokenURL))

	started := time.Now()
	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			c.observe(ep, rErr.Response.StatusCode, started)
			return nil, c.rejected(ep, newAPIError(rErr.Response.StatusCode, rErr.Body))
		}
		var uErr *url.Error
		if errors.As(err, &uErr) {
			c.observe(ep, 0, started)
			return nil, &TransportError{Method: ep.method, Path: ep.path, Err: err}
		}
		// The token endpoint answered 2xx with a body oauth2 could not use.
		c.observe(ep, http.StatusOK, started)
		return nil, fmt.Errorf("login: %w", err)
	}
	c.observe(ep, http.StatusOK, started)

	resp := &AuthResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Role:        extraString(tok.Extra("role")),
	}

	userID, err := extraInt(tok.Extra("user_id"))
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: user_id: %w", loginPath, err)
	}
	resp.UserID = userID

	return resp, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	ep := endpoint{method: http.MethodPost, route: "/auth/register", path: "/auth/register"}
	if err := c.postJSON(ctx, ep, reg, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("decoding %s response: missing access_token", ep.route)
	}

	return &resp, nil
}

func extraString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func extraInt(v any) (int, error) {
	switch val := v.(type) {
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(val))
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
