package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kalambet/persona/internal/api"
	"github.com/kalambet/persona/internal/config"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
)

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      cfg.Server.APIToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is \"persona start\" running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, "GET", path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, "POST", path, body)
}

func (c *apiClient) delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, "DELETE", path, nil)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// remoteAnalyzer runs analyses on a running server.
type remoteAnalyzer struct {
	client *apiClient
}

func (r remoteAnalyzer) Analyze(ctx context.Context, username string, opts persona.Options) (persona.Result, error) {
	save := !opts.SkipSave
	resp, err := r.client.post(ctx, "/analyze", api.AnalyzeRequest{
		Username:     username,
		PostLimit:    opts.PostLimit,
		CommentLimit: opts.CommentLimit,
		Save:         &save,
	})
	if err != nil {
		return persona.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return persona.Result{}, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return persona.Result{}, remoteError(envelope.Error.Type, envelope.Error.Message)
	}

	var res persona.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return persona.Result{}, fmt.Errorf("decoding analysis: %w", err)
	}
	return res, nil
}

// remoteError restores the sentinel behind an API error type.
func remoteError(errType, msg string) error {
	var sentinel error
	switch errType {
	case "invalid_request_error":
		sentinel = persona.ErrInvalidUsername
	case "not_found":
		sentinel = reddit.ErrUserNotFound
	case "no_data":
		sentinel = persona.ErrNoData
	case "upstream_auth_error":
		sentinel = reddit.ErrUnauthorized
	default:
		return fmt.Errorf("server error (%s): %s", errType, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
