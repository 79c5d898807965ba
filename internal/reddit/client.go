// Package reddit is a small read-only client for the Reddit OAuth API,
// limited to what a persona analysis needs: checking that an account
// exists and listing its newest submissions and comments.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/kalambet/persona/internal/analysis"
)

const (
	DefaultBaseURL   = "https://oauth.reddit.com"
	DefaultAuthURL   = "https://www.reddit.com/api/v1/access_token"
	DefaultUserAgent = "persona_analyzer_script"

	// MaxPageSize is the largest listing page Reddit serves.
	MaxPageSize = 100

	permalinkHost = "https://www.reddit.com"
	tokenLeeway   = time.Minute
)

var (
	// ErrUserNotFound is returned for accounts that do not exist or are suspended.
	ErrUserNotFound = errors.New("user not found or suspended")
	// ErrUnauthorized is returned when Reddit rejects the client credentials.
	ErrUnauthorized = errors.New("reddit rejected client credentials")
)

// Options configures a Client.
type Options struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	BaseURL           string
	AuthURL           string
	RequestsPerMinute int
	PageSize          int
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client talks to Reddit with application-only OAuth. It is safe for
// concurrent use; all requests share one token and one rate limiter.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// New creates a Client, filling unset options with Reddit's defaults.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.AuthURL == "" {
		opts.AuthURL = DefaultAuthURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	return &Client{
		opts:       opts,
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// accessToken returns a cached bearer token, requesting a new one when the
// current token is missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.Error != "" || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, tr.Error)
	}

	c.token = tr.AccessToken
	c.expires = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenLeeway)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// get performs an authenticated GET against the API and decodes the JSON
// response into dst. It returns the HTTP status for callers that map
// specific codes.
func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) (int, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.opts.UserAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.invalidateToken()
		return resp.StatusCode, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return resp.StatusCode, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

type aboutResponse struct {
	Data struct {
		Name        string `json:"name"`
		IsSuspended bool   `json:"is_suspended"`
	} `json:"data"`
}

// CheckUser returns ErrUserNotFound unless username is an active account.
func (c *Client) CheckUser(ctx context.Context, username string) error {
	var about aboutResponse
	status, err := c.get(ctx, "/user/"+url.PathEscape(username)+"/about", nil, &about)
	switch {
	case status == http.StatusNotFound || status == http.StatusForbidden:
		return fmt.Errorf("u/%s: %w", username, ErrUserNotFound)
	case err != nil:
		return fmt.Errorf("checking u/%s: %w", username, err)
	case about.Data.IsSuspended:
		return fmt.Errorf("u/%s: %w", username, ErrUserNotFound)
	}
	return nil
}

type listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string `json:"kind"`
	Data struct {
		Title     string `json:"title"`
		Selftext  string `json:"selftext"`
		Body      string `json:"body"`
		Permalink string `json:"permalink"`
	} `json:"data"`
}

// Submissions returns the user's acceptable text posts among their newest
// limit submissions, newest first. Link posts and posts whose body is too
// short are skipped. On a mid-listing failure the items gathered so far are
// returned together with the error.
func (c *Client) Submissions(ctx context.Context, username string, limit int) ([]analysis.ContentItem, error) {
	return c.list(ctx, username, "submitted", limit, func(t thing) (analysis.ContentItem, bool) {
		body := strings.TrimSpace(html.UnescapeString(t.Data.Selftext))
		if !analysis.Acceptable(body) {
			return analysis.ContentItem{}, false
		}
		title := html.UnescapeString(t.Data.Title)
		text := strings.TrimSpace(fmt.Sprintf("Title: %s\nBody: %s", title, body))
		return analysis.ContentItem{Text: text, SourceURL: permalinkHost + t.Data.Permalink}, true
	})
}

// Comments returns the user's acceptable comments among their newest limit
// comments, newest first, with the same partial-result behavior as
// Submissions.
func (c *Client) Comments(ctx context.Context, username string, limit int) ([]analysis.ContentItem, error) {
	return c.list(ctx, username, "comments", limit, func(t thing) (analysis.ContentItem, bool) {
		body := strings.TrimSpace(html.UnescapeString(t.Data.Body))
		if !analysis.Acceptable(body) {
			return analysis.ContentItem{}, false
		}
		return analysis.ContentItem{Text: body, SourceURL: permalinkHost + t.Data.Permalink}, true
	})
}

func (c *Client) list(ctx context.Context, username, kind string, limit int, convert func(thing) (analysis.ContentItem, bool)) ([]analysis.ContentItem, error) {
	path := "/user/" + url.PathEscape(username) + "/" + kind
	var items []analysis.ContentItem
	after := ""
	seen := 0

	for seen < limit {
		q := url.Values{
			"sort":  {"new"},
			"limit": {strconv.Itoa(min(c.opts.PageSize, limit-seen))},
		}
		if after != "" {
			q.Set("after", after)
		}

		var page listing
		status, err := c.get(ctx, path, q, &page)
		if status == http.StatusNotFound || status == http.StatusForbidden {
			return items, fmt.Errorf("u/%s: %w", username, ErrUserNotFound)
		}
		if err != nil {
			return items, fmt.Errorf("listing %s for u/%s: %w", kind, username, err)
		}

		for _, t := range page.Data.Children {
			if seen == limit {
				break
			}
			seen++
			if item, ok := convert(t); ok {
				items = append(items, item)
			}
		}

		c.logger.Debug("fetched listing page", "username", username, "kind", kind, "children", len(page.Data.Children), "kept", len(items))

		if page.Data.After == "" || len(page.Data.Children) == 0 {
			break
		}
		after = page.Data.After
	}
	return items, nil
}
