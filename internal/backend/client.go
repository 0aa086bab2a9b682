// Package backend is a thin client for the QuickFuel REST API that owns
// stations, orders and users.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quickfuel-admin/pkg/config"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with one of the given codes.
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

// Client calls the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig creates a client from the api section of the configuration.
func NewClientFromConfig(cfg config.APIConfig) *Client {
	return NewClient(cfg.BaseURL, cfg.Timeout)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginResult carries the credentials issued by the backend.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	UserDetails  json.RawMessage
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Token        string          `json:"token"`
	User         json.RawMessage `json:"user"`
	UserDetails  json.RawMessage `json:"userDetails"`
	Data         json.RawMessage `json:"data"`
}

// Login exchanges an email and password for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var payload loginPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if payload.AccessToken == "" && payload.Token == "" && len(payload.Data) > 0 {
		if err := json.Unmarshal(payload.Data, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode login response: %w", err)
		}
	}

	result := &LoginResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		UserDetails:  payload.User,
	}
	if result.AccessToken == "" {
		result.AccessToken = payload.Token
	}
	if len(result.UserDetails) == 0 {
		result.UserDetails = payload.UserDetails
	}
	if result.AccessToken == "" {
		return nil, errors.New("login response has no access token")
	}
	return result, nil
}

// ListStations returns all fuel stations.
func (c *Client) ListStations(ctx context.Context, token string) ([]Station, error) {
	var stations []Station
	if err := c.list(ctx, "/stations", "stations", token, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// ListOrders returns all orders.
func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.list(ctx, "/orders", "orders", token, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	if err := c.list(ctx, "/users", "users", token, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) list(ctx context.Context, path, key, token string, out interface{}) error {
	raw, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	if err := decodeList(raw, key, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// decodeList accepts a bare array, {"data": [...]} or {"<key>": [...]},
// including {"data": {"<key>": [...]}}.
func decodeList(raw []byte, key string, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.Unmarshal([]byte("[]"), out)
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	for _, name := range []string{"data", key} {
		if inner, ok := envelope[name]; ok {
			return decodeList(inner, key, out)
		}
	}
	return fmt.Errorf("response has no %q or data list", key)
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	return raw, nil
}

func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}
