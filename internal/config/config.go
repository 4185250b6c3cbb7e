// Package config loads lectern settings from a YAML file and LECTERN_*
// environment variables. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/lectern/internal/playback"
)

// Config is the complete lectern configuration.
type Config struct {
	Addr         string  `yaml:"addr"`
	Curriculum   string  `yaml:"curriculum"`
	PublicDir    string  `yaml:"public_dir,omitempty"`
	LogMode      string  `yaml:"log_mode"`
	DB           string  `yaml:"db,omitempty"`
	PlaybackRate float64 `yaml:"playback_rate"`
	SnapshotKeep int     `yaml:"snapshot_keep"`
	Coach        Coach   `yaml:"coach"`
}

// Coach controls LLM feedback on wrong answers. Provider credentials come
// from the environment only.
type Coach struct {
	Enabled     bool    `yaml:"enabled"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":3000",
		Curriculum:   "curriculum",
		LogMode:      "prod",
		PlaybackRate: playback.DefaultRate,
		SnapshotKeep: 10,
		Coach: Coach{
			Enabled:     true,
			MaxTokens:   256,
			Temperature: 0.4,
		},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. An empty path reads DefaultPath and tolerates its absence.
func Load(path string) (Config, error) {
	cfg := Default()
	ignoreMissing := path == ""
	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path, ignoreMissing); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// DefaultPath is $LECTERN_CONFIG, else config.yaml under the XDG config
// directory.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("LECTERN_CONFIG")); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lectern", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "lectern.yaml")
	}
	return filepath.Join(home, ".config", "lectern", "config.yaml")
}

func (c *Config) loadFrom(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) loadFile(fn string, ignoreNotFound bool) error {
	f, err := os.Open(fn)
	if os.IsNotExist(err) && ignoreNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := c.loadFrom(f); err != nil {
		return fmt.Errorf("cannot load configuration file %q: %w", fn, err)
	}
	return nil
}

// Save writes c as YAML to fn, creating its directory.
func (c Config) Save(fn string) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("cannot write file %q: %w", fn, err)
	}
	return enc.Close()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"LECTERN_ADDR":       &c.Addr,
		"LECTERN_CURRICULUM": &c.Curriculum,
		"LECTERN_PUBLIC_DIR": &c.PublicDir,
		"LECTERN_LOG_MODE":   &c.LogMode,
		"LECTERN_DB":         &c.DB,
	}
	for name, field := range str {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*field = v
		}
	}

	if v := strings.TrimSpace(getenv("LECTERN_PLAYBACK_RATE")); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LECTERN_PLAYBACK_RATE: %w", err)
		}
		c.PlaybackRate = rate
	}
	if v := strings.TrimSpace(getenv("LECTERN_COACH")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LECTERN_COACH: %w", err)
		}
		c.Coach.Enabled = on
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.Curriculum == "":
		return errors.New("curriculum must not be empty")
	case c.LogMode != "dev" && c.LogMode != "prod":
		return fmt.Errorf("log_mode must be dev or prod, got %q", c.LogMode)
	case c.PlaybackRate < playback.MinRate || c.PlaybackRate > playback.MaxRate:
		return fmt.Errorf("playback_rate %.2f not in [%.1f, %.1f]", c.PlaybackRate, playback.MinRate, playback.MaxRate)
	case c.SnapshotKeep < 0:
		return errors.New("snapshot_keep must not be negative")
	}
	return nil
}
