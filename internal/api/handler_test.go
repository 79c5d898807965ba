package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/persona/internal/analysis"
	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

const testToken = "test-token-12345"

type mockAnalyzer struct {
	res     persona.Result
	err     error
	gotUser string
	gotOpts persona.Options
}

func (m *mockAnalyzer) Analyze(_ context.Context, username string, opts persona.Options) (persona.Result, error) {
	m.gotUser, m.gotOpts = username, opts
	return m.res, m.err
}

type mockCache struct {
	stats   collect.Stats
	cleared int
}

func (m *mockCache) Stats() collect.Stats { return m.stats }

func (m *mockCache) ClearCache() int {
	m.cleared++
	n := m.stats.Entries
	m.stats.Entries = 0
	return n
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store, *mockAnalyzer, *mockCache) {
	t.Helper()
	store := openTestStore(t)
	an := &mockAnalyzer{res: persona.Result{
		ReportID: "rep-1",
		Username: "gopher",
		Report:   "REPORT",
		Profile:  analysis.Profile{LexiconVersion: "v1", PostCount: 1},
	}}
	mc := &mockCache{stats: collect.Stats{Enabled: true, Entries: 3, Hits: 5, Misses: 2}}
	h := NewAppHandler(AppDeps{Analyzer: an, Reports: store, Cache: mc, Token: token})
	return h, store, an, mc
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", rr.Body.String(), err)
	}
	return body.Error.Type
}

func TestHealth_NoAuth(t *testing.T) {
	h, _, _, _ := setupAppHandler(t, testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAuth_Required(t *testing.T) {
	h, _, _, _ := setupAppHandler(t, testToken)

	for _, token := range []string{"", "wrong"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodGet, "/reports", "", token))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports", "", testToken))
	if rr.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rr.Code)
	}
}

func TestAuth_DisabledWithoutToken(t *testing.T) {
	h, _, _, _ := setupAppHandler(t, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/cache", "", ""))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rr.Code)
	}
}

func TestAnalyze_OK(t *testing.T) {
	h, _, an, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", `{"username":"gopher","post_limit":10,"comment_limit":20,"save":false}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if an.gotUser != "gopher" || an.gotOpts.PostLimit != 10 || an.gotOpts.CommentLimit != 20 || !an.gotOpts.SkipSave {
		t.Errorf("analyzer got %q %+v", an.gotUser, an.gotOpts)
	}

	var res persona.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if res.ReportID != "rep-1" || res.Report != "REPORT" {
		t.Errorf("result = %+v", res)
	}
}

func TestAnalyze_SaveDefaultsTrue(t *testing.T) {
	h, _, an, _ := setupAppHandler(t, testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", `{"username":"gopher"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if an.gotOpts.SkipSave {
		t.Error("reports should be saved unless save is false")
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	h, _, _, _ := setupAppHandler(t, testToken)

	for _, body := range []string{`not json`, `{}`, `{"username":"x","post_limit":-1}`} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", body, testToken))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		errType string
	}{
		{fmt.Errorf("u/ghost: %w", reddit.ErrUserNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("u/quiet: %w", persona.ErrNoData), http.StatusNotFound, "no_data"},
		{fmt.Errorf("%w: %q", persona.ErrInvalidUsername, "a b"), http.StatusBadRequest, "invalid_request_error"},
		{reddit.ErrUnauthorized, http.StatusBadGateway, "upstream_auth_error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{fmt.Errorf("boom"), http.StatusBadGateway, "api_error"},
	}
	for _, tt := range tests {
		h, _, an, _ := setupAppHandler(t, testToken)
		an.err = tt.err

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/analyze", `{"username":"someone"}`, testToken))
		if rr.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rr.Code, tt.status)
		}
		if got := errorType(t, rr); got != tt.errType {
			t.Errorf("%v: type = %q, want %q", tt.err, got, tt.errType)
		}
	}
}

func seedReports(t *testing.T, store *storage.Store) {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"alice", "bob"} {
		if err := store.SaveReport(storage.Report{
			ID:        fmt.Sprintf("rep-%s", user),
			Username:  user,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Body:      "report for " + user,
		}); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}
}

func TestReports_ListGetDelete(t *testing.T) {
	h, store, _, _ := setupAppHandler(t, testToken)
	seedReports(t, store)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports?username=alice", "", testToken))
	var list []storage.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "rep-alice" {
		t.Errorf("list = %+v", list)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports/rep-bob", "", testToken))
	var rep storage.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if rep.Body != "report for bob" {
		t.Errorf("body = %q", rep.Body)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports/rep-bob/text", "", testToken))
	if rr.Body.String() != "report for bob" || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("text endpoint = %q (%s)", rr.Body.String(), rr.Header().Get("Content-Type"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/reports/rep-bob", "", testToken))
	if rr.Code != http.StatusOK {
		t.Errorf("delete status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports/rep-bob", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/reports/rep-bob", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestReports_EmptyListIsArray(t *testing.T) {
	h, _, _, _ := setupAppHandler(t, testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/reports", "", testToken))
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rr.Body.String())
	}
}

func TestCache_StatsAndClear(t *testing.T) {
	h, _, _, mc := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/cache", "", testToken))
	var stats collect.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats != mc.stats {
		t.Errorf("stats = %+v, want %+v", stats, mc.stats)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodDelete, "/cache", "", testToken))
	var cleared struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decoding clear: %v", err)
	}
	if cleared.Removed != 3 || mc.cleared != 1 {
		t.Errorf("removed = %d, cleared calls = %d", cleared.Removed, mc.cleared)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=500", 100},
		{"limit=-1", 20},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/reports?"+tt.query, nil)
		if got := parseIntParam(r, "limit", 20, 100); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
