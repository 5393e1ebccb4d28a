package client

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

	"fieldsync/internal/domain"
)

// TokenSource yields the current bearer token. An empty token means the
// request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the remote reporting service. It holds no state besides
// its configuration.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Title   string `json:"title"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Error, e.Title} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// do sends a JSON request and decodes a 2xx body into out. resource and id
// name the target for NotFoundError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, resource, id string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		var apiErr apiError
		json.Unmarshal(respBody, &apiErr)
		return &domain.AuthError{Op: op, Message: apiErr.text()}
	case resp.StatusCode == http.StatusNotFound:
		return &domain.NotFoundError{Resource: resource, ID: id}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var apiErr apiError
		json.Unmarshal(respBody, &apiErr)
		msg := apiErr.text()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &domain.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// listEnvelope accepts either a bare array or one wrapped in data/items.
type listEnvelope struct {
	items []domain.RemoteReport
}

func (l *listEnvelope) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.items)
	}
	var wrapped struct {
		Data  []domain.RemoteReport `json:"data"`
		Items []domain.RemoteReport `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	l.items = wrapped.Data
	if l.items == nil {
		l.items = wrapped.Items
	}
	return nil
}
