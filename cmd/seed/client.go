package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient talks to a running worknest server.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching the server

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Ticket struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// Register creates the account, falling back to logging in when it already
// exists. The client keeps the returned token.
func (c *APIClient) Register(ctx context.Context, username, email, password string) (*User, error) {
	var result AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, http.StatusCreated, &result)
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusConflict {
		err = c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
			"username": username,
			"password": password,
		}, http.StatusOK, &result)
	}
	if err != nil {
		return nil, err
	}

	c.token = result.Token
	return &result.User, nil
}

func (c *APIClient) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPost, "/projects", map[string]any{
		"name":        name,
		"description": description,
	}, http.StatusCreated, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *APIClient) CreateTicket(ctx context.Context, body map[string]any) (*Ticket, error) {
	var ticket Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", body, http.StatusCreated, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *APIClient) UpdateTicket(ctx context.Context, id string, body map[string]any) (*Ticket, error) {
	var ticket Ticket
	if err := c.do(ctx, http.MethodPut, "/tickets/"+id, body, http.StatusOK, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *APIClient) AddComment(ctx context.Context, ticketID, content string) error {
	return c.do(ctx, http.MethodPost, "/tickets/"+ticketID+"/comments", map[string]string{
		"content": content,
	}, http.StatusCreated, nil)
}

// APIError is a non-expected status from the server.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.Status, e.Body)
}

// HTTP helpers

func (c *APIClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
