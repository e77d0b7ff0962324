// Package client talks to the portal HTTP API on behalf of the command-line
// client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-portal/internal/auth"

	"go.uber.org/zap"
)

const DefaultBaseURL = "http://localhost:3000"

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a Client for baseURL. A nil httpClient gets a 10s timeout.
func New(baseURL string, httpClient *http.Client, logger ...*zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	l := zap.L().Named("client.api")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  l,
	}
}

type envelope struct {
	Success bool               `json:"success"`
	User    auth.PublicProfile `json:"user"`
	Error   string             `json:"error"`
	Code    string             `json:"code"`
}

// Login checks credentials. The server only echoes the email back.
func (c *Client) Login(ctx context.Context, email, password string) (auth.PublicProfile, error) {
	return c.post(ctx, "/auth", auth.LoginRequest{Email: email, Password: password})
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (auth.PublicProfile, error) {
	return c.post(ctx, "/auth/signup", auth.SignupRequest{Name: name, Email: email, Password: password})
}

func (c *Client) post(ctx context.Context, path string, body any) (auth.PublicProfile, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return auth.PublicProfile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return auth.PublicProfile{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("path", path), zap.Error(err))
		return auth.PublicProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return auth.PublicProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return auth.PublicProfile{}, &APIError{Status: resp.StatusCode}
		}
		return auth.PublicProfile{}, fmt.Errorf("decode %s response: %w", path, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		return auth.PublicProfile{}, &APIError{
			Status:  resp.StatusCode,
			Code:    env.Code,
			Message: env.Error,
		}
	}
	return env.User, nil
}
