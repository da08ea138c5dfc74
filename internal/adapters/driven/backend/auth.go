package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
)

// Account endpoints.
const (
	loginPath  = "/auth/login"
	signupPath = "/auth/signup"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (driven.AccessToken, error) {
	return c.credentials(ctx, loginPath, email, password)
}

// Signup creates an account and returns its first access token.
func (c *Client) Signup(ctx context.Context, email, password string) (driven.AccessToken, error) {
	return c.credentials(ctx, signupPath, email, password)
}

func (c *Client) credentials(ctx context.Context, path, email, password string) (driven.AccessToken, error) {
	jsonBody, err := json.Marshal(credentialsRequest{Email: email, Password: password})
	if err != nil {
		return driven.AccessToken{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(jsonBody))
	if err != nil {
		return driven.AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(c.client, req)
	if err != nil {
		return driven.AccessToken{}, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return driven.AccessToken{}, fmt.Errorf("%s: decode response: %w", path, err)
	}
	if tok.TokenType == "" {
		tok.TokenType = "bearer"
	}
	return driven.AccessToken{Token: tok.AccessToken, Type: tok.TokenType}, nil
}
