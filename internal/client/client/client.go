// Package client is a typed client for the gophauth HTTP API.
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

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Identity is what the server reads back from a token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Health is the server health report.
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Client is the gophauth API client.
type Client struct {
	serverURL  string
	apiURL     string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at serverURL whose API routes live
// under apiPrefix.
func New(serverURL, apiPrefix, token string, timeout time.Duration) *Client {
	server := strings.TrimRight(serverURL, "/")
	api := server
	if p := strings.Trim(apiPrefix, "/"); p != "" {
		api += "/" + p
	}
	return &Client{
		serverURL: server,
		apiURL:    api,
		token:     token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	if err := c.doRequest(ctx, http.MethodPost, c.apiURL+"/register", req, &u); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &u, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var res LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, c.apiURL+"/login", body, &res); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &res, nil
}

// Me returns the identity bound to the client's token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.doRequest(ctx, http.MethodGet, c.apiURL+"/me", nil, &id); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &id, nil
}

// Health reports server health. /health lives at the server root, outside
// the API prefix. A 503 still yields a report alongside the error.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("client.Health: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client.Health: do request: %w", err)
	}
	defer resp.Body.Close()

	var h Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&h); err != nil {
		return nil, fmt.Errorf("client.Health: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &h, &APIError{StatusCode: resp.StatusCode, Kind: common.KindInternal, Message: "service unhealthy"}
	}
	return &h, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &APIError{StatusCode: resp.StatusCode, Kind: common.KindInternal, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Kind: common.KindFromString(apiErr.Error), Message: apiErr.Message}
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: common.KindInternal, Message: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
