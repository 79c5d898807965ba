package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials is returned by RequireReddit when the Reddit API
// credentials are absent or still set to the sample placeholders.
var ErrMissingCredentials = errors.New("missing required config: Reddit API credentials")

// MaxBatchSize is the largest listing page Reddit serves.
const MaxBatchSize = 100

const keychainService = "persona"

var placeholders = map[string]bool{
	"your_client_id_here":     true,
	"your_client_secret_here": true,
}

type Config struct {
	Reddit  RedditConfig
	Fetch   FetchConfig
	Cache   CacheConfig
	Storage StorageConfig
	Report  ReportConfig
	Lexicon LexiconConfig
	Server  ServerConfig
	Log     LogConfig
}

type RedditConfig struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	BaseURL           string
	AuthURL           string
	RequestsPerMinute int
}

type FetchConfig struct {
	MaxWorkers   int
	BatchSize    int
	PostLimit    int
	CommentLimit int
}

type CacheConfig struct {
	Enabled    bool
	MaxEntries int
}

type StorageConfig struct {
	DataDir string
}

type ReportConfig struct {
	OutputDir string
}

type LexiconConfig struct {
	// Path to a YAML lexicon. Empty selects the built-in tables.
	Path string
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Reddit: RedditConfig{
			UserAgent:         "persona_analyzer_script",
			BaseURL:           "https://oauth.reddit.com",
			AuthURL:           "https://www.reddit.com/api/v1/access_token",
			RequestsPerMinute: 60,
		},
		Fetch: FetchConfig{
			MaxWorkers:   4,
			BatchSize:    50,
			PostLimit:    100,
			CommentLimit: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Report: ReportConfig{
			OutputDir: ".",
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.persona.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/persona/config.json
// and secrets fall back to $XDG_DATA_HOME/persona/secrets.json.
//
// Environment variables override backend values on all platforms.
// Load does not require Reddit credentials; commands that talk to Reddit
// call RequireReddit.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Secrets not provided via env come from the platform secret store.
	for _, s := range specs {
		if !s.secret || s.extract(cfg).(string) != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.account); err == nil && v != "" {
			s.apply(&cfg, v)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}
	if c.Fetch.MaxWorkers < 1 {
		return fmt.Errorf("invalid fetch.max_workers %d: must be at least 1", c.Fetch.MaxWorkers)
	}
	if c.Fetch.BatchSize < 1 {
		return fmt.Errorf("invalid fetch.batch_size %d: must be at least 1", c.Fetch.BatchSize)
	}
	c.Fetch.BatchSize = min(c.Fetch.BatchSize, MaxBatchSize)
	if c.Fetch.PostLimit < 0 || c.Fetch.CommentLimit < 0 {
		return fmt.Errorf("invalid fetch limits %d/%d: must not be negative", c.Fetch.PostLimit, c.Fetch.CommentLimit)
	}
	if c.Reddit.RequestsPerMinute < 0 {
		return fmt.Errorf("invalid reddit.requests_per_minute %d: must not be negative", c.Reddit.RequestsPerMinute)
	}
	return nil
}

// RequireReddit reports whether the Reddit credentials are usable.
func (c Config) RequireReddit() error {
	var missing []string
	if !usable(c.Reddit.ClientID) {
		missing = append(missing, "client id (REDDIT_CLIENT_ID)")
	}
	if !usable(c.Reddit.ClientSecret) {
		missing = append(missing, "client secret (REDDIT_CLIENT_SECRET"+secretHint()+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

func usable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !placeholders[v]
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
