package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chatline/authflow"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// storeSettings selects and locates the session store.
type storeSettings struct {
	Kind     string        `mapstructure:"kind" yaml:"kind"`
	Path     string        `mapstructure:"path" yaml:"path"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// settings is everything a command needs to build a client.
type settings struct {
	ConfigFile string          `yaml:"-"`
	Client     authflow.Config `yaml:"client"`
	Store      storeSettings   `yaml:"store"`
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".authflow", "session.json")
	}
	return filepath.Join(dir, "authflow", "session.json")
}

// loadSettings layers the optional config file, AUTHFLOW_* environment
// variables and changed flags over the client defaults. A missing config file
// is not an error.
func loadSettings(v *viper.Viper) (*settings, error) {
	if err := registerDefaults(v); err != nil {
		return nil, err
	}

	s := &settings{ConfigFile: v.GetString("config_file")}
	if s.ConfigFile != "" {
		_, err := os.Stat(s.ConfigFile)
		switch {
		case err == nil:
			v.SetConfigFile(s.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file %q: %w", s.ConfigFile, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			s.ConfigFile = ""
		default:
			return nil, fmt.Errorf("stat config file %q: %w", s.ConfigFile, err)
		}
	}

	s.Client = authflow.DefaultConfig()
	if err := v.Unmarshal(&s.Client); err != nil {
		return nil, fmt.Errorf("decode client config: %w", err)
	}
	if err := v.UnmarshalKey("store", &s.Store); err != nil {
		return nil, fmt.Errorf("decode store config: %w", err)
	}
	if base := v.GetString("base_url"); base != "" {
		s.Client.Identity.BaseURL = base
	}
	if s.Store.Kind == "" {
		s.Store.Kind = storeFile
	}
	if s.Store.Path == "" {
		s.Store.Path = defaultSessionFile()
	}
	return s, nil
}

// registerDefaults declares every client config key so that AutomaticEnv
// can override nested keys, e.g. AUTHFLOW_IDENTITY_TIMEOUT.
func registerDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(authflow.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode default config: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}
