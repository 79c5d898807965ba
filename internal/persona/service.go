// Package persona orchestrates one analysis: collect a user's content,
// profile it, render the report and save it.
package persona

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/persona/internal/analysis"
	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/lexicon"
	"github.com/kalambet/persona/internal/report"
	"github.com/kalambet/persona/internal/storage"
)

var (
	// ErrNoData is returned when neither posts nor comments could be collected.
	ErrNoData = errors.New("no posts or comments available for analysis")
	// ErrInvalidUsername is returned for names Reddit could never have issued.
	ErrInvalidUsername = errors.New("invalid username")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// NormalizeUsername trims whitespace and a leading "u/" or "/u/".
func NormalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "/")
	if len(name) > 2 && strings.EqualFold(name[:2], "u/") {
		name = name[2:]
	}
	if !usernamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, raw)
	}
	return name, nil
}

// Collector fetches the raw content of one user.
type Collector interface {
	Collect(ctx context.Context, username string, postLimit, commentLimit int) (collect.Collection, error)
}

// ReportStore indexes saved reports.
type ReportStore interface {
	SaveReport(r storage.Report) error
}

// Options controls a single analysis. Zero limits fall back to the
// service defaults.
type Options struct {
	PostLimit    int
	CommentLimit int
	// SkipSave renders the report without writing or indexing it.
	SkipSave bool
}

// Result is the outcome of one analysis.
type Result struct {
	ReportID     string           `json:"report_id,omitempty"`
	Username     string           `json:"username"`
	Profile      analysis.Profile `json:"profile"`
	Report       string           `json:"report"`
	FilePath     string           `json:"file_path,omitempty"`
	FromCache    bool             `json:"from_cache"`
	GeneratedAt  time.Time        `json:"generated_at"`
	FetchTime    time.Duration    `json:"fetch_time_ns"`
	AnalysisTime time.Duration    `json:"analysis_time_ns"`
}

// Config holds the service settings.
type Config struct {
	PostLimit    int
	CommentLimit int
	// OutputDir receives report files. Empty disables file output.
	OutputDir string
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	collector Collector
	lex       *lexicon.Lexicon
	store     ReportStore
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a Service. store may be nil, in which case reports
// are not indexed.
func NewService(c Collector, lex *lexicon.Lexicon, store ReportStore, cfg Config) *Service {
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = 100
	}
	if cfg.CommentLimit <= 0 {
		cfg.CommentLimit = 100
	}
	return &Service{
		collector: c,
		lex:       lex,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// Lexicon returns the lexicon the service scores with.
func (s *Service) Lexicon() *lexicon.Lexicon { return s.lex }

// Analyze collects, profiles and reports on username.
func (s *Service) Analyze(ctx context.Context, username string, opts Options) (Result, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return Result{}, err
	}
	postLimit, commentLimit := opts.PostLimit, opts.CommentLimit
	if postLimit <= 0 {
		postLimit = s.cfg.PostLimit
	}
	if commentLimit <= 0 {
		commentLimit = s.cfg.CommentLimit
	}

	s.logger.Info("analyzing user", "username", name, "post_limit", postLimit, "comment_limit", commentLimit)

	start := s.now()
	col, err := s.collector.Collect(ctx, name, postLimit, commentLimit)
	if err != nil {
		return Result{}, fmt.Errorf("collecting u/%s: %w", name, err)
	}
	if col.Empty() {
		return Result{}, fmt.Errorf("u/%s: %w", name, ErrNoData)
	}
	fetched := s.now()

	profile := analysis.Analyze(col.Posts, col.Comments, s.lex)
	generated := s.now()
	body := report.Render(report.Input{
		Username:    name,
		Profile:     profile,
		Posts:       col.Posts,
		Comments:    col.Comments,
		GeneratedAt: generated,
	})

	res := Result{
		Username:     name,
		Profile:      profile,
		Report:       body,
		FromCache:    col.FromCache,
		GeneratedAt:  generated,
		FetchTime:    fetched.Sub(start),
		AnalysisTime: s.now().Sub(fetched),
	}
	if opts.SkipSave {
		return res, nil
	}

	if s.cfg.OutputDir != "" {
		path, err := storage.WriteReportFile(s.cfg.OutputDir, name, body, generated)
		if err != nil {
			return res, err
		}
		res.FilePath = path
	}
	if s.store != nil {
		res.ReportID = uuid.New().String()
		rec := storage.Report{
			ID:             res.ReportID,
			Username:       name,
			CreatedAt:      generated,
			PostCount:      profile.PostCount,
			CommentCount:   profile.CommentCount,
			LexiconVersion: profile.LexiconVersion,
			FilePath:       res.FilePath,
			Body:           body,
		}
		if err := s.store.SaveReport(rec); err != nil {
			return res, fmt.Errorf("indexing report: %w", err)
		}
	}

	s.logger.Info("analysis complete", "username", name, "posts", profile.PostCount, "comments", profile.CommentCount, "report_id", res.ReportID)
	return res, nil
}
