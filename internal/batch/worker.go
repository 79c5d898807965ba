// Package batch analyzes many users through the durable SQLite job queue so
// that transient Reddit failures are retried with backoff.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

// JobType is the queue type of a single-user analysis.
const JobType = "analyze_user"

// JobStore abstracts the job queue operations.
type JobStore interface {
	EnqueueJob(job storage.Job) error
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	AbandonJob(id string, errMsg string) error
	GetJob(id string) (storage.Job, error)
}

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, username string, opts persona.Options) (persona.Result, error)
}

// Payload is the JSON body of an analyze_user job.
type Payload struct {
	Username     string `json:"username"`
	PostLimit    int    `json:"post_limit,omitempty"`
	CommentLimit int    `json:"comment_limit,omitempty"`
}

// ParseUsernames splits a comma-separated list, dropping blanks and
// case-insensitive duplicates.
func ParseUsernames(list string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}

// Enqueue adds one job per username and returns the job IDs in order.
func Enqueue(store JobStore, usernames []string, opts persona.Options) ([]string, error) {
	ids := make([]string, 0, len(usernames))
	for _, name := range usernames {
		payload, err := json.Marshal(Payload{Username: name, PostLimit: opts.PostLimit, CommentLimit: opts.CommentLimit})
		if err != nil {
			return ids, fmt.Errorf("encoding payload: %w", err)
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        JobType,
			PayloadJSON: string(payload),
		}
		if err := store.EnqueueJob(job); err != nil {
			return ids, fmt.Errorf("enqueueing u/%s: %w", name, err)
		}
		ids = append(ids, job.ID)
	}
	return ids, nil
}

// Worker processes analyze_user jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	analyzer Analyzer
	poll     time.Duration
	logger   *slog.Logger

	// OnResult, when set, is called after every processed job.
	OnResult func(username string, res persona.Result, err error)
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, analyzer Analyzer, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		poll:     pollInterval,
		logger:   slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single analyze_user job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	var p Payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		w.logger.Warn("malformed job payload", "job_id", job.ID, "error", err)
		if abandonErr := w.store.AbandonJob(job.ID, "parsing payload: "+err.Error()); abandonErr != nil {
			return true, fmt.Errorf("abandoning job %s: %w", job.ID, abandonErr)
		}
		return true, nil
	}

	res, err := w.analyzer.Analyze(ctx, p.Username, persona.Options{PostLimit: p.PostLimit, CommentLimit: p.CommentLimit})
	if w.OnResult != nil {
		w.OnResult(p.Username, res, err)
	}
	if err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "username", p.Username, "error", err)
		mark := w.store.FailJob
		if Permanent(err) {
			mark = w.store.AbandonJob
		}
		if markErr := mark(job.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", markErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// Permanent reports whether retrying an analysis that failed with err
// cannot succeed.
func Permanent(err error) bool {
	return errors.Is(err, reddit.ErrUserNotFound) ||
		errors.Is(err, reddit.ErrUnauthorized) ||
		errors.Is(err, persona.ErrNoData) ||
		errors.Is(err, persona.ErrInvalidUsername)
}

// Wait blocks until every job in ids is completed or failed and returns
// their final state in the same order.
func Wait(ctx context.Context, store JobStore, ids []string, poll time.Duration) ([]storage.Job, error) {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	for {
		jobs := make([]storage.Job, 0, len(ids))
		finished := true
		for _, id := range ids {
			j, err := store.GetJob(id)
			if err != nil {
				return nil, fmt.Errorf("loading job %s: %w", id, err)
			}
			if j.Status != storage.JobCompleted && j.Status != storage.JobFailed {
				finished = false
			}
			jobs = append(jobs, j)
		}
		if finished {
			return jobs, nil
		}

		select {
		case <-ctx.Done():
			return jobs, ctx.Err()
		case <-time.After(poll):
		}
	}
}
