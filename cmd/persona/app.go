package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kalambet/persona/internal/cache"
	"github.com/kalambet/persona/internal/collect"
	"github.com/kalambet/persona/internal/config"
	"github.com/kalambet/persona/internal/lexicon"
	"github.com/kalambet/persona/internal/persona"
	"github.com/kalambet/persona/internal/reddit"
	"github.com/kalambet/persona/internal/storage"
)

// app is the wired analysis stack shared by the CLI commands and the server.
type app struct {
	cfg       config.Config
	lex       *lexicon.Lexicon
	store     *storage.Store
	collector *collect.Collector
	svc       *persona.Service
}

// loadConfig reads config and installs the logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg.Log.Level)
	return cfg, nil
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded lexicon", "path", path, "version", lex.Version)
	return lex, nil
}

// newApp wires the Reddit client, cache, collector, storage and service.
func newApp(cfg config.Config) (*app, error) {
	if err := cfg.RequireReddit(); err != nil {
		return nil, err
	}

	lex, err := loadLexicon(cfg.Lexicon.Path)
	if err != nil {
		return nil, err
	}

	client := reddit.New(reddit.Options{
		ClientID:          cfg.Reddit.ClientID,
		ClientSecret:      cfg.Reddit.ClientSecret,
		UserAgent:         cfg.Reddit.UserAgent,
		BaseURL:           cfg.Reddit.BaseURL,
		AuthURL:           cfg.Reddit.AuthURL,
		RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
		PageSize:          cfg.Fetch.BatchSize,
	})

	var c cache.Cache
	if cfg.Cache.Enabled {
		if c, err = cache.New(cfg.Cache.MaxEntries); err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	collector := collect.New(client, c, cfg.Fetch.MaxWorkers)
	return &app{
		cfg:       cfg,
		lex:       lex,
		store:     store,
		collector: collector,
		svc: persona.NewService(collector, lex, store, persona.Config{
			PostLimit:    cfg.Fetch.PostLimit,
			CommentLimit: cfg.Fetch.CommentLimit,
			OutputDir:    cfg.Report.OutputDir,
		}),
	}, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}
