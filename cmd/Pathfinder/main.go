package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/Pathfinder/internal/api"
	"github.com/BTreeMap/Pathfinder/internal/config"
	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/genai"
	"github.com/BTreeMap/Pathfinder/internal/store"
	"github.com/BTreeMap/Pathfinder/internal/tui"
)

// CommandTUI runs the interactive terminal form instead of the web server.
const CommandTUI = "tui"

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && args[0] == CommandTUI {
		command, args = CommandTUI, args[1:]
	}

	// Parse command line flags
	flags, err := parseCommandLineFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load configuration from .env, the config file and the environment
	cfg, err := loadEnvironmentConfig(flags.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	applyFlags(&cfg, flags)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	// Initialize structured logger
	initializeLogger(cfg.Debug, command == CommandTUI)
	slog.Debug("Final configuration", "config", cfg)

	// Build module options
	genaiOpts := buildGenAIOptions(cfg)
	storeOpts := buildStoreOptions(cfg)
	apiOpts := buildAPIOptions(cfg)

	if command == CommandTUI {
		if err := runTUI(genaiOpts); err != nil {
			slog.Error("Pathfinder TUI failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("Bootstrapping Pathfinder", "provider", cfg.Provider, "addr", cfg.Server.Addr)
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	if err := api.Run(storeOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("Pathfinder failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Pathfinder exited successfully")
}

// Flags holds command line flag values. Only flags named in set override the configuration.
type Flags struct {
	configPath   string
	apiAddr      string
	provider     string
	geminiAPIKey string
	openaiAPIKey string
	model        string
	endpoint     string
	timeout      time.Duration
	sessionTTL   time.Duration
	debug        bool

	set map[string]bool
}

// initializeLogger sets up structured logging. The terminal form logs to stderr and only warnings
// unless debug is on, so log lines do not interleave with prompts.
func initializeLogger(debug, interactive bool) {
	level := slog.LevelInfo
	if interactive {
		level = slog.LevelWarn
	}
	if debug {
		level = slog.LevelDebug
	}
	out := os.Stdout
	if interactive {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads the .env file into the environment and then the configuration.
func loadEnvironmentConfig(path string) (config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
	return config.Load(path)
}

// parseCommandLineFlags parses args into Flags and records which flags were given.
func parseCommandLineFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("Pathfinder", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file (overrides $PATHFINDER_CONFIG)")
	fs.StringVar(&f.apiAddr, "api-addr", "", "API server address (overrides $API_ADDR)")
	fs.StringVar(&f.provider, "provider", "", "generative provider: gemini or openai (overrides $GENAI_PROVIDER)")
	fs.StringVar(&f.geminiAPIKey, "gemini-api-key", "", "Gemini API key (overrides $GEMINI_API_KEY)")
	fs.StringVar(&f.openaiAPIKey, "openai-api-key", "", "OpenAI API key (overrides $OPENAI_API_KEY)")
	fs.StringVar(&f.model, "model", "", "model for the openai provider (overrides $OPENAI_MODEL)")
	fs.StringVar(&f.endpoint, "endpoint", "", "Gemini endpoint or OpenAI base URL (overrides $GEMINI_API_ENDPOINT or $OPENAI_BASE_URL)")
	fs.DurationVar(&f.timeout, "timeout", 0, "timeout for each generation request, 0 for none (overrides $GENAI_TIMEOUT)")
	fs.DurationVar(&f.sessionTTL, "session-ttl", 0, "idle time before a web session is evicted, 0 to keep sessions (overrides $SESSION_TTL)")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging (overrides $PATHFINDER_DEBUG)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() > 0 {
		return Flags{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// applyFlags overlays the flags that were given onto cfg.
func applyFlags(cfg *config.Config, f Flags) {
	if f.set["api-addr"] {
		cfg.Server.Addr = f.apiAddr
	}
	if f.set["provider"] {
		cfg.Provider = f.provider
	}
	if f.set["gemini-api-key"] {
		cfg.Gemini.APIKey = f.geminiAPIKey
	}
	if f.set["openai-api-key"] {
		cfg.OpenAI.APIKey = f.openaiAPIKey
	}
	if f.set["model"] {
		cfg.OpenAI.Model = f.model
	}
	if f.set["endpoint"] {
		if cfg.Provider == genai.ProviderOpenAI {
			cfg.OpenAI.BaseURL = f.endpoint
		} else {
			cfg.Gemini.Endpoint = f.endpoint
		}
	}
	if f.set["timeout"] {
		cfg.Timeout = f.timeout
	}
	if f.set["session-ttl"] {
		cfg.Server.SessionTTL = f.sessionTTL
	}
	if f.set["debug"] {
		cfg.Debug = f.debug
	}
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(cfg config.Config) []genai.Option {
	genaiOpts := []genai.Option{
		genai.WithProvider(cfg.Provider),
		genai.WithAPIKey(cfg.APIKey()),
	}
	switch cfg.Provider {
	case genai.ProviderOpenAI:
		if cfg.OpenAI.BaseURL != "" {
			genaiOpts = append(genaiOpts, genai.WithEndpoint(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.Model != "" {
			genaiOpts = append(genaiOpts, genai.WithModel(cfg.OpenAI.Model))
		}
	default:
		if cfg.Gemini.Endpoint != "" {
			genaiOpts = append(genaiOpts, genai.WithEndpoint(cfg.Gemini.Endpoint))
		}
	}
	if cfg.Timeout > 0 {
		genaiOpts = append(genaiOpts, genai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return genaiOpts
}

// buildStoreOptions constructs session store options
func buildStoreOptions(cfg config.Config) []store.Option {
	return []store.Option{store.WithTTL(cfg.Server.SessionTTL)}
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(cfg config.Config) []api.Option {
	var apiOpts []api.Option
	if cfg.Server.Addr != "" {
		apiOpts = append(apiOpts, api.WithAddr(cfg.Server.Addr))
	}
	return apiOpts
}

// runTUI runs one terminal session until the user quits or the process is interrupted.
func runTUI(genaiOpts []genai.Option) error {
	gen, err := genai.New(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tui.New(flow.NewController(gen), nil).Run(ctx)
}
