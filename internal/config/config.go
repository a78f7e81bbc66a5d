// Package config assembles Pathfinder settings from defaults, an optional YAML file and the
// environment. Command-line flags are applied on top by cmd/Pathfinder.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/Pathfinder/internal/genai"
	"github.com/BTreeMap/Pathfinder/internal/util"
)

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "pathfinder.yaml"

// Default configuration constants
const (
	DefaultAddr       = ":8080"
	DefaultSessionTTL = 30 * time.Minute
)

// ErrInvalidProvider is returned by Validate for unsupported provider names.
var ErrInvalidProvider = errors.New("provider must be \"gemini\" or \"openai\"")

// GeminiConfig configures the Gemini generateContent transport.
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// OpenAIConfig configures the OpenAI-compatible transport.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Config holds every Pathfinder setting.
type Config struct {
	// Provider selects the generative backend: "gemini" (default) or "openai".
	Provider string       `yaml:"provider"`
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	// Timeout bounds each generation request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
	Server  ServerConfig  `yaml:"server"`
	Debug   bool          `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider: genai.ProviderGemini,
		Gemini:   GeminiConfig{Endpoint: genai.DefaultGeminiEndpoint},
		OpenAI:   OpenAIConfig{Model: genai.DefaultOpenAIModel},
		Server: ServerConfig{
			Addr:       DefaultAddr,
			SessionTTL: DefaultSessionTTL,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the file keep their
// current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	slog.Debug("config.LoadFile: loaded config file", "path", path)
	return nil
}

// Load returns the defaults overlaid with the YAML file at path and then the environment.
// An empty path falls back to $PATHFINDER_CONFIG and then DefaultFile; only an explicitly
// named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("PATHFINDER_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultFile
		}
	}

	if err := LoadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		slog.Debug("config.Load: no config file, using defaults", "path", path)
	}

	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. The VITE_-prefixed names are accepted as
// fallbacks so existing .env files keep working.
func ApplyEnv(cfg *Config) {
	if v, key := util.FirstEnv("GEMINI_API_KEY", "VITE_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
		slog.Debug("config.ApplyEnv: gemini API key found in environment", "source", key)
	}
	if v, _ := util.FirstEnv("GEMINI_API_ENDPOINT", "VITE_GEMINI_API_ENDPOINT"); v != "" {
		cfg.Gemini.Endpoint = v
	}
	if v := os.Getenv("GENAI_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	cfg.Timeout = util.ParseDurationEnv("GENAI_TIMEOUT", cfg.Timeout)
	cfg.Server.SessionTTL = util.ParseDurationEnv("SESSION_TTL", cfg.Server.SessionTTL)
	cfg.Debug = util.ParseBoolEnv("PATHFINDER_DEBUG", cfg.Debug)

	slog.Debug("config.ApplyEnv: environment applied", "config", *cfg)
}

// Validate rejects settings that cannot work. A missing API key is not an error here: it is
// reported when a roadmap is requested.
func (c Config) Validate() error {
	switch c.Provider {
	case genai.ProviderGemini, genai.ProviderOpenAI:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidProvider, c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if c.Provider == genai.ProviderOpenAI {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

// LogValue keeps credentials out of log output.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", c.Provider),
		slog.Bool("gemini_api_key_set", c.Gemini.APIKey != ""),
		slog.String("gemini_endpoint", c.Gemini.Endpoint),
		slog.Bool("openai_api_key_set", c.OpenAI.APIKey != ""),
		slog.String("openai_model", c.OpenAI.Model),
		slog.String("openai_base_url", c.OpenAI.BaseURL),
		slog.Duration("timeout", c.Timeout),
		slog.String("addr", c.Server.Addr),
		slog.Duration("session_ttl", c.Server.SessionTTL),
		slog.Bool("debug", c.Debug),
	)
}
