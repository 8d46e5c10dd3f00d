package config

// ConfigBackend is the platform-native settings store: UserDefaults on
// macOS, an XDG JSON file elsewhere. Values are written by `config set` and
// read at startup before environment overrides apply.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
