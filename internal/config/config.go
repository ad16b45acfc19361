// Package config resolves pgen settings from defaults, an optional TOML
// file and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Google holds the OAuth client registration and upload target
type Google struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
	FolderID     string `toml:"folder_id"`
}

type Config struct {
	Port                 string   `toml:"port"`
	FetchConcurrency     int      `toml:"fetch_concurrency"`
	NormalizeConcurrency int      `toml:"normalize_concurrency"`
	FetchTimeoutSeconds  int      `toml:"fetch_timeout_seconds"`
	MaxImageBytes        int64    `toml:"max_image_bytes"`
	MaxCards             int      `toml:"max_cards"`
	AllowedOrigins       []string `toml:"allowed_origins"`
	Google               Google   `toml:"google"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Port:                 "5000",
		FetchConcurrency:     8,
		NormalizeConcurrency: runtime.NumCPU(),
		FetchTimeoutSeconds:  30,
		MaxImageBytes:        25 << 20,
		MaxCards:             900,
		AllowedOrigins:       []string{"*"},
	}
}

// Load reads path (when non-empty) over the defaults and then applies
// environment overrides
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Port)
	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URL", &c.Google.RedirectURL)
	str("GOOGLE_DRIVE_FOLDER_ID", &c.Google.FolderID)

	if v, ok := lookup("PGEN_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}

	if v, ok := lookup("PGEN_MAX_IMAGE_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PGEN_MAX_IMAGE_BYTES %q: %w", v, err)
		}
		c.MaxImageBytes = n
	}

	return errors.Join(
		num("PGEN_FETCH_CONCURRENCY", &c.FetchConcurrency),
		num("PGEN_NORMALIZE_CONCURRENCY", &c.NormalizeConcurrency),
		num("PGEN_FETCH_TIMEOUT_SECONDS", &c.FetchTimeoutSeconds),
		num("PGEN_MAX_CARDS", &c.MaxCards),
	)
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	var problems []error
	if c.Port == "" {
		problems = append(problems, errors.New("port is required"))
	}
	if c.FetchConcurrency <= 0 {
		problems = append(problems, fmt.Errorf("fetch_concurrency must be positive, got %d", c.FetchConcurrency))
	}
	if c.NormalizeConcurrency <= 0 {
		problems = append(problems, fmt.Errorf("normalize_concurrency must be positive, got %d", c.NormalizeConcurrency))
	}
	if c.FetchTimeoutSeconds <= 0 {
		problems = append(problems, fmt.Errorf("fetch_timeout_seconds must be positive, got %d", c.FetchTimeoutSeconds))
	}
	if c.MaxImageBytes < 0 {
		problems = append(problems, fmt.Errorf("max_image_bytes must not be negative, got %d", c.MaxImageBytes))
	}
	return errors.Join(problems...)
}

// FetchTimeout is FetchTimeoutSeconds as a duration
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// UploadEnabled reports whether Google OAuth credentials are configured
func (c Config) UploadEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
