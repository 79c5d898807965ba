package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key    string
	typ    keyType
	env    string
	secret bool
	// account names the secret in the platform secret store.
	account string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "reddit.client_id", typ: kString, env: "REDDIT_CLIENT_ID",
		apply:   func(cfg *Config, v any) { cfg.Reddit.ClientID = v.(string) },
		extract: func(cfg Config) any { return cfg.Reddit.ClientID },
	},
	{
		key: "reddit.client_secret", typ: kString, env: "REDDIT_CLIENT_SECRET",
		secret: true, account: "reddit_client_secret",
		apply:   func(cfg *Config, v any) { cfg.Reddit.ClientSecret = v.(string) },
		extract: func(cfg Config) any { return cfg.Reddit.ClientSecret },
	},
	{
		key: "reddit.user_agent", typ: kString, env: "REDDIT_USER_AGENT",
		apply:   func(cfg *Config, v any) { cfg.Reddit.UserAgent = v.(string) },
		extract: func(cfg Config) any { return cfg.Reddit.UserAgent },
	},
	{
		key: "reddit.base_url", typ: kString, env: "PERSONA_REDDIT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Reddit.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Reddit.BaseURL },
	},
	{
		key: "reddit.auth_url", typ: kString, env: "PERSONA_REDDIT_AUTH_URL",
		apply:   func(cfg *Config, v any) { cfg.Reddit.AuthURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Reddit.AuthURL },
	},
	{
		key: "reddit.requests_per_minute", typ: kInt, env: "PERSONA_REDDIT_RPM",
		apply:   func(cfg *Config, v any) { cfg.Reddit.RequestsPerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.Reddit.RequestsPerMinute },
	},
	{
		key: "fetch.max_workers", typ: kInt, env: "MAX_WORKERS",
		apply:   func(cfg *Config, v any) { cfg.Fetch.MaxWorkers = v.(int) },
		extract: func(cfg Config) any { return cfg.Fetch.MaxWorkers },
	},
	{
		key: "fetch.batch_size", typ: kInt, env: "BATCH_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Fetch.BatchSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Fetch.BatchSize },
	},
	{
		key: "fetch.post_limit", typ: kInt, env: "PERSONA_POST_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Fetch.PostLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Fetch.PostLimit },
	},
	{
		key: "fetch.comment_limit", typ: kInt, env: "PERSONA_COMMENT_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Fetch.CommentLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Fetch.CommentLimit },
	},
	{
		key: "cache.enabled", typ: kBool, env: "CACHE_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Cache.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Cache.Enabled },
	},
	{
		key: "cache.max_entries", typ: kInt, env: "PERSONA_CACHE_MAX_ENTRIES",
		apply:   func(cfg *Config, v any) { cfg.Cache.MaxEntries = v.(int) },
		extract: func(cfg Config) any { return cfg.Cache.MaxEntries },
	},
	{
		key: "storage.data_dir", typ: kString, env: "PERSONA_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "report.output_dir", typ: kString, env: "PERSONA_REPORT_DIR",
		apply:   func(cfg *Config, v any) { cfg.Report.OutputDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Report.OutputDir },
	},
	{
		key: "lexicon.path", typ: kString, env: "PERSONA_LEXICON_PATH",
		apply:   func(cfg *Config, v any) { cfg.Lexicon.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Lexicon.Path },
	},
	{
		key: "server.port", typ: kInt, env: "PERSONA_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "PERSONA_API_TOKEN",
		secret: true, account: "api_token",
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "log.level", typ: kString, env: "PERSONA_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func lookup(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
