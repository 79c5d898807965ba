package config

// ConfigBackend is where persisted, non-secret settings live: UserDefaults
// on macOS, a JSON file elsewhere. Environment variables are layered on top
// by Load.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
