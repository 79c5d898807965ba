package batch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

type mockAnalyzer struct {
	mu      sync.Mutex
	calls   []string
	errs    map[string]error
	lastOpt persona.Options
}

func (m *mockAnalyzer) Analyze(_ context.Context, username string, opts persona.Options) (persona.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, username)
	m.lastOpt = opts
	if err := m.errs[username]; err != nil {
		return persona.Result{}, err
	}
	return persona.Result{Username: username, ReportID: "rep-" + username}, nil
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseUsernames(t *testing.T) {
	got := ParseUsernames(" alice, bob ,,Alice, carol ,")
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseUsernames = %v, want %v", got, want)
	}
	if got := ParseUsernames(" , "); len(got) != 0 {
		t.Errorf("ParseUsernames(blank) = %v, want empty", got)
	}
}

func TestWorker_ProcessesJob(t *testing.T) {
	store := openTestStore(t)
	ids, err := Enqueue(store, []string{"gopher"}, persona.Options{PostLimit: 10, CommentLimit: 20})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	an := &mockAnalyzer{}
	w := NewWorker(store, an, 0)
	var gotUser string
	var gotRes persona.Result
	w.OnResult = func(username string, res persona.Result, err error) {
		gotUser, gotRes = username, res
	}

	didWork, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if !didWork {
		t.Fatal("RunOnce returned false, expected true")
	}
	if an.lastOpt.PostLimit != 10 || an.lastOpt.CommentLimit != 20 {
		t.Errorf("options = %+v", an.lastOpt)
	}
	if gotUser != "gopher" || gotRes.ReportID != "rep-gopher" {
		t.Errorf("OnResult got %q %+v", gotUser, gotRes)
	}

	j, err := store.GetJob(ids[0])
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j.Status != storage.JobCompleted {
		t.Errorf("status = %q, want completed", j.Status)
	}
}

func TestWorker_NoJobs(t *testing.T) {
	w := NewWorker(openTestStore(t), &mockAnalyzer{}, 0)
	didWork, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if didWork {
		t.Error("RunOnce should report no work on an empty queue")
	}
}

func TestWorker_PermanentFailureNotRetried(t *testing.T) {
	for _, permErr := range []error{
		fmt.Errorf("u/ghost: %w", reddit.ErrUserNotFound),
		fmt.Errorf("u/ghost: %w", persona.ErrNoData),
	} {
		store := openTestStore(t)
		ids, err := Enqueue(store, []string{"ghost"}, persona.Options{})
		if err != nil {
			t.Fatal(err)
		}
		w := NewWorker(store, &mockAnalyzer{errs: map[string]error{"ghost": permErr}}, 0)
		if _, err := w.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}

		j, err := store.GetJob(ids[0])
		if err != nil {
			t.Fatal(err)
		}
		if j.Status != storage.JobFailed {
			t.Errorf("%v: status = %q, want failed", permErr, j.Status)
		}
		if j.LastError != permErr.Error() {
			t.Errorf("last_error = %q", j.LastError)
		}
	}
}

func TestWorker_TransientFailureRetried(t *testing.T) {
	store := openTestStore(t)
	ids, err := Enqueue(store, []string{"gopher"}, persona.Options{})
	if err != nil {
		t.Fatal(err)
	}
	w := NewWorker(store, &mockAnalyzer{errs: map[string]error{"gopher": errors.New("connection reset")}}, 0)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	j, err := store.GetJob(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != storage.JobPending {
		t.Errorf("status = %q, want pending", j.Status)
	}
	if j.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", j.Attempts)
	}
	if !j.RunAfter.After(time.Now().UTC().Add(-time.Second)) {
		t.Errorf("run_after %v should be pushed into the future", j.RunAfter)
	}
}

func TestWorker_MalformedPayload(t *testing.T) {
	store := openTestStore(t)
	if err := store.EnqueueJob(storage.Job{ID: "bad", Type: JobType, PayloadJSON: "{not json"}); err != nil {
		t.Fatal(err)
	}
	an := &mockAnalyzer{}
	w := NewWorker(store, an, 0)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(an.calls) != 0 {
		t.Error("analyzer should not run for a malformed payload")
	}
	j, err := store.GetJob("bad")
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != storage.JobFailed {
		t.Errorf("status = %q, want failed", j.Status)
	}
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{reddit.ErrUserNotFound, true},
		{reddit.ErrUnauthorized, true},
		{persona.ErrNoData, true},
		{persona.ErrInvalidUsername, true},
		{errors.New("timeout"), false},
		{context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := Permanent(fmt.Errorf("wrapped: %w", tt.err)); got != tt.want {
			t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRunAndWait(t *testing.T) {
	store := openTestStore(t)
	users := []string{"alice", "ghost", "bob"}
	ids, err := Enqueue(store, users, persona.Options{})
	if err != nil {
		t.Fatal(err)
	}

	an := &mockAnalyzer{errs: map[string]error{"ghost": reddit.ErrUserNotFound}}
	w := NewWorker(store, an, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	jobs, err := Wait(ctx, store, ids, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	cancel()
	<-done

	want := []string{storage.JobCompleted, storage.JobFailed, storage.JobCompleted}
	for i, j := range jobs {
		if j.ID != ids[i] {
			t.Errorf("jobs[%d].ID = %q, want %q", i, j.ID, ids[i])
		}
		if j.Status != want[i] {
			t.Errorf("jobs[%d] (%s) status = %q, want %q", i, users[i], j.Status, want[i])
		}
	}
}

func TestWait_Cancelled(t *testing.T) {
	store := openTestStore(t)
	ids, err := Enqueue(store, []string{"gopher"}, persona.Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Wait(ctx, store, ids, time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
