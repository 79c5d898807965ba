package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/persona/internal/analysis"
	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/config"
	"github.com/kalambet/persona/internal/lexicon"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

// fakeAnalyzer returns canned results; usernames in errs fail.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, username string, opts persona.Options) (persona.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, username)
	f.mu.Unlock()
	if err, ok := f.errs[username]; ok {
		return persona.Result{}, err
	}
	return persona.Result{
		ReportID:     "rep-" + username,
		Username:     username,
		Report:       "REPORT FOR u/" + username,
		FilePath:     "reddit_analysis_" + username + ".txt",
		Profile:      analysis.Profile{PostCount: 3, CommentCount: 7},
		FetchTime:    1500 * time.Millisecond,
		AnalysisTime: 250 * time.Millisecond,
	}, nil
}

type fakeCache struct {
	stats   collect.Stats
	cleared int
}

func (f *fakeCache) Stats() collect.Stats { return f.stats }

func (f *fakeCache) ClearCache() int {
	f.cleared++
	n := f.stats.Entries
	f.stats.Entries = 0
	return n
}

func TestAnalyzeUser_PrintsReportAndSummary(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	var out bytes.Buffer
	cc := &fakeCache{stats: collect.Stats{Enabled: true, Hits: 4}}
	if err := analyzeUser(ctx, &out, &fakeAnalyzer{}, cc, "gopher", persona.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"STARTING ANALYSIS",
		"ANALYSIS COMPLETE",
		"REPORT FOR u/gopher",
		"Report saved to: reddit_analysis_gopher.txt",
		"Report ID: rep-gopher",
		"PERFORMANCE SUMMARY",
		"Total Time: 1.75 seconds",
		"Analysis Time: 0.25 seconds",
		"Data Points: 3 posts, 7 comments",
		"Cache Hits: 4",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestAnalyzeUser_Failure(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	an := &fakeAnalyzer{errs: map[string]error{"quiet": fmt.Errorf("u/quiet: %w", persona.ErrNoData)}}
	var out bytes.Buffer
	err := analyzeUser(ctx, &out, an, nil, "quiet", persona.Options{})
	if !errors.Is(err, persona.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if !strings.Contains(out.String(), "Analysis failed - no posts or comments") {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "PERFORMANCE SUMMARY") {
		t.Error("performance summary printed for a failed analysis")
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", reddit.ErrUserNotFound), "user not found or suspended"},
		{fmt.Errorf("x: %w", persona.ErrInvalidUsername), "not a valid Reddit username"},
		{reddit.ErrUnauthorized, "Reddit rejected the API credentials"},
		{context.Canceled, "interrupted"},
		{errors.New("boom"), "could not retrieve user data: boom"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRunInteractive(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	an := &fakeAnalyzer{errs: map[string]error{"ghost": reddit.ErrUserNotFound}}
	cc := &fakeCache{stats: collect.Stats{Enabled: true, Entries: 2, Hits: 1}}
	in := strings.NewReader("3\n4\n9\n1\n\n1\nu/spez\n2\nalice, ghost,alice\n5\n1\nnever\n")

	var out bytes.Buffer
	if err := runInteractive(ctx, in, &out, an, cc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"CACHE STATISTICS",
		"Cached entries: 2",
		"Cache cleared successfully (2 entries removed)",
		"Invalid choice. Please enter 1-5",
		"Please enter a valid username",
		"REPORT FOR u/u/spez",
		"Analyzing: alice",
		"Analyzing: ghost",
		"Analysis failed - user not found or suspended",
		"Thanks for using Reddit Persona Analyzer!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if cc.cleared != 1 {
		t.Errorf("cache cleared %d times, want 1", cc.cleared)
	}
	want := []string{"u/spez", "alice", "ghost"}
	if strings.Join(an.calls, ",") != strings.Join(want, ",") {
		t.Errorf("analyzed %v, want %v (exit must stop the loop)", an.calls, want)
	}
}

func TestRunInteractive_EOF(t *testing.T) {
	var out bytes.Buffer
	if err := runInteractive(ctx, strings.NewReader("3\n"), &out, &fakeAnalyzer{}, &fakeCache{}); err != nil {
		t.Fatalf("unexpected error at end of input: %v", err)
	}
}

func TestRunInteractive_Cancelled(t *testing.T) {
	cctx, cancel := context.WithCancel(ctx)
	cancel()

	var out bytes.Buffer
	an := &fakeAnalyzer{}
	if err := runInteractive(cctx, strings.NewReader("1\ngopher\n"), &out, an, &fakeCache{}); err != nil {
		t.Fatal(err)
	}
	if len(an.calls) != 0 {
		t.Errorf("analyzed %v after cancellation", an.calls)
	}
	if !strings.Contains(out.String(), "interrupted") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunBatch(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	an := &fakeAnalyzer{errs: map[string]error{"ghost": fmt.Errorf("u/ghost: %w", reddit.ErrUserNotFound)}}
	var out bytes.Buffer

	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = runBatch(tctx, &out, store, an, []string{"alice", "ghost", "bob"}, persona.Options{PostLimit: 5}, 10*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 analyses failed") {
		t.Fatalf("err = %v, want 1 of 3 failed", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("summary has %d lines, want header + 3:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "u/alice") || !strings.Contains(lines[1], storage.JobCompleted) {
		t.Errorf("alice line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "u/ghost") || !strings.Contains(lines[2], storage.JobFailed) {
		t.Errorf("ghost line = %q", lines[2])
	}
	if len(an.calls) != 3 {
		t.Errorf("analyzer called %d times, want 3 (no retry for unknown users)", len(an.calls))
	}
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = "my-secret-token"

	if _, err := client.get(ctx, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client.token = ""
	if _, err := client.get(ctx, "/health"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", ts.requests[0].Auth)
	}
	if ts.requests[1].Auth != "" {
		t.Errorf("auth = %q, want no header without a token", ts.requests[1].Auth)
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"error":{"message":"unauthorized","type":"auth_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{
		baseURL:    ts.URL,
		token:      "bad-token",
		httpClient: ts.Client(),
	}

	resp, err := client.get(ctx, "/cache")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %q, want it to contain '401'", err.Error())
	}
}

func TestCacheCommands(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /cache":    `{"enabled":true,"entries":3,"hits":9,"misses":2}`,
		"DELETE /cache": `{"status":"cleared","removed":3}`,
	})
	client := ts.client()

	stats, err := fetchCacheStats(ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (collect.Stats{Enabled: true, Entries: 3, Hits: 9, Misses: 2}) {
		t.Errorf("stats = %+v", stats)
	}

	removed, err := clearRemoteCache(ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	noColor = true
	defer func() { noColor = false }()
	var out bytes.Buffer
	printCacheStats(&out, stats)
	if !strings.Contains(out.String(), "Cached entries: 3") || !strings.Contains(out.String(), "Total cache hits: 9") {
		t.Errorf("printCacheStats output = %q", out.String())
	}
}

func TestRemoteAnalyzer(t *testing.T) {
	res := persona.Result{ReportID: "r1", Username: "gopher", Report: "REPORT", Profile: analysis.Profile{PostCount: 2}}
	body, _ := json.Marshal(res)
	ts := newTestServer(t, map[string]string{"POST /analyze": string(body)})

	got, err := remoteAnalyzer{client: ts.client()}.Analyze(ctx, "gopher", persona.Options{PostLimit: 10, SkipSave: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.ReportID != "r1" || got.Report != "REPORT" || got.Profile.PostCount != 2 {
		t.Errorf("result = %+v", got)
	}

	var req map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &req); err != nil {
		t.Fatal(err)
	}
	if req["username"] != "gopher" || req["post_limit"] != float64(10) || req["save"] != false {
		t.Errorf("request body = %v", req)
	}
}

func TestRemoteAnalyzer_ErrorTypes(t *testing.T) {
	tests := []struct {
		errType string
		want    error
	}{
		{"not_found", reddit.ErrUserNotFound},
		{"no_data", persona.ErrNoData},
		{"invalid_request_error", persona.ErrInvalidUsername},
		{"upstream_auth_error", reddit.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.errType, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprintf(w, `{"error":{"message":"nope","type":%q}}`, tt.errType)
			}))
			defer ts.Close()

			c := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
			_, err := remoteAnalyzer{client: c}.Analyze(ctx, "gopher", persona.Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPrintReportList(t *testing.T) {
	var out bytes.Buffer
	printReportList(&out, nil)
	if !strings.Contains(out.String(), "No reports found.") {
		t.Errorf("empty list output = %q", out.String())
	}

	out.Reset()
	printReportList(&out, []storage.Report{{
		ID:           "rep-1",
		Username:     "gopher",
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		PostCount:    4,
		CommentCount: 9,
		FilePath:     "out/report.txt",
	}})
	got := out.String()
	for _, want := range []string{"ID", "rep-1", "u/gopher", "out/report.txt"} {
		if !strings.Contains(got, want) {
			t.Errorf("list output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintConfig(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	var cfg config.Config
	cfg.Server.Port = 4100
	cfg.Reddit.ClientSecret = "hunter2"

	var out bytes.Buffer
	printConfig(&out, config.ShowAll(cfg))
	got := out.String()
	if !strings.Contains(got, "server.port = 4100  (PERSONA_SERVER_PORT)") {
		t.Errorf("config output missing server.port:\n%s", got)
	}
	if strings.Contains(got, "hunter2") {
		t.Error("config output leaks the client secret")
	}
}

func TestPrintLexicon(t *testing.T) {
	var out bytes.Buffer
	lex := lexicon.Default()
	printLexicon(&out, lex)
	got := out.String()
	if !strings.Contains(got, lex.Version) {
		t.Errorf("lexicon output missing version %q", lex.Version)
	}
	for _, name := range lex.TraitNames() {
		if !strings.Contains(got, name) {
			t.Errorf("lexicon output missing trait %q", name)
		}
	}
}

func TestAnalyzeCommand_RequiresUsername(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"analyze"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing username")
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{5, 100, "5"},
		{0, 100, "0"},
		{100, 100, "100+"},
		{150, 100, "150+"},
	}
	for _, tt := range tests {
		got := countLabel(tt.count, tt.limit)
		if got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestCacheLabel(t *testing.T) {
	if got := cacheLabel(false, 3, 4); got != "disabled" {
		t.Errorf("cacheLabel(disabled) = %q", got)
	}
	if got := cacheLabel(true, 3, 4); got != "3 entries, 4 hits" {
		t.Errorf("cacheLabel = %q", got)
	}
}
