// Package config loads server configuration from finmcp.yaml with
// environment overrides. The upstream token only ever enters through the
// environment and is never written back out.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "finmcp.yaml"
	homeConfigDir     = ".finmcp"
	homeConfigName    = "config.yaml"

	// EnvToken and EnvBaseURL override any file-provided values.
	EnvToken   = "FIN_API_TOKEN"
	EnvBaseURL = "FIN_API_BASE"
)

// Transport names accepted by --transport and the config file.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Config is the process configuration, immutable once handed to the server.
type Config struct {
	// Token is read from FIN_API_TOKEN only; it has no yaml field on
	// purpose so it cannot land in a config file or survive a round trip.
	Token string `yaml:"-"`

	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	Transport      string `yaml:"transport,omitempty"`
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	CORSOrigin     string `yaml:"cors_origin,omitempty"`
	ProbeCron      string `yaml:"probe_cron,omitempty"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		TimeoutSeconds: 30,
		Transport:      TransportSSE,
		Host:           "0.0.0.0",
		Port:           8000,
		CORSOrigin:     "*",
	}
}

// Timeout returns the per-call upstream timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the fields a typo would most likely break.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		return fmt.Errorf("config: unknown transport %q (want stdio, sse, or http)", c.Transport)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	return nil
}

// DiscoverPath resolves the config file location with first-match semantics:
// explicit path, ./finmcp.yaml, then ~/.finmcp/config.yaml.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("config: stat %s: %w", candidate, err)
		}
		// A directory with the config name only fails when explicitly named.
		if i == 0 && strings.TrimSpace(explicitPath) != "" {
			return "", false, fmt.Errorf("config: %s is a directory", candidate)
		}
	}
	if strings.TrimSpace(explicitPath) != "" {
		return "", false, fmt.Errorf("config: %s does not exist", explicitPath)
	}
	return "", false, nil
}

// Load reads the config file at path (skipped when empty) over the defaults
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if token := os.Getenv(EnvToken); token != "" {
		cfg.Token = token
	}
	if base := strings.TrimSpace(os.Getenv(EnvBaseURL)); base != "" {
		cfg.BaseURL = base
	}
}
