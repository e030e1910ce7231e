package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by every kernel setting.
const envPrefix = "LATTICEFORGE"

// Sentinel errors returned by Load and its convenience wrappers. Callers
// should use errors.Is against these rather than matching on message text.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: failed to parse file")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// options collects the settings assembled by Option values.
type options struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
}

// Option configures a Load call.
type Option func(*options)

// WithConfigPath points Load at a specific YAML file.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithSearchPaths adds a directory Load should search for a file named
// "config.yaml" when no explicit WithConfigPath is given.
func WithSearchPaths(dir string) Option {
	return func(o *options) { o.searchPaths = append(o.searchPaths, dir) }
}

// WithOverrides applies explicit key/value overrides after the file and
// environment have been merged but before defaults are applied. Keys use
// viper's dotted path notation, e.g. "server.http.port".
func WithOverrides(overrides map[string]interface{}) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(overrides))
		}
		for k, v := range overrides {
			o.overrides[k] = v
		}
	}
}

// newViper builds a pre-configured Viper instance: YAML file type,
// LATTICEFORGE_ env prefix, automatic env binding, and a key replacer that
// maps "." → "_" so nested keys like "database.postgres.host" resolve to
// LATTICEFORGE_DATABASE_POSTGRES_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvs(v, Config{})
	return v
}

// bindEnvs recursively binds each field of the given struct to an
// environment variable using its "mapstructure" tag, so nested keys are
// picked up even when absent from both the file and an explicit BindEnv call.
func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ift := reflect.TypeOf(iface)
	if ift.Kind() == reflect.Ptr {
		ift = ift.Elem()
	}
	for i := 0; i < ift.NumField(); i++ {
		field := ift.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "," {
			continue
		}
		newParts := append(parts, tag)
		if field.Type.Kind() == reflect.Struct {
			bindEnvs(v, reflect.New(field.Type).Elem().Interface(), newParts...)
		} else {
			key := strings.Join(newParts, ".")
			_ = v.BindEnv(key)
		}
	}
}

// Load assembles a Config from, in ascending priority order: platform
// defaults, a YAML file (via WithConfigPath or discovered under
// WithSearchPaths as "config.yaml"), LATTICEFORGE_* environment variables,
// and WithOverrides values. The file is optional unless WithConfigPath names
// one explicitly. The resulting Config is validated and, on success, becomes
// the process-global config returned by Get.
func Load(opts ...Option) (*Config, error) {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}

	v := newViper()

	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.configPath)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.configPath, err)
		}
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, dir := range o.searchPaths {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: searched %v", ErrConfigFileNotFound, o.searchPaths)
			}
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}

	Set(cfg)
	return cfg, nil
}

// LoadFromFile is a convenience wrapper equivalent to Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config entirely from LATTICEFORGE_* environment
// variables and defaults, with no config file. This is the preferred
// loading strategy for containerised (12-factor) deployments.
func LoadFromEnv() (*Config, error) {
	return Load()
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error. It
// is intended for use in main() where a config-load failure is always fatal.
func MustLoad(opts ...Option) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Process-global accessor
// ─────────────────────────────────────────────────────────────────────────────

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Get returns the process-global Config set by the most recent successful
// Load/Set call, or nil if none has run yet.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// Set installs cfg as the process-global Config returned by Get.
func Set(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}
