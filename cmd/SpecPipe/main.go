package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/api"
	"github.com/BTreeMap/SpecPipe/internal/export"
	"github.com/BTreeMap/SpecPipe/internal/flow"
	"github.com/BTreeMap/SpecPipe/internal/genai"
	"github.com/BTreeMap/SpecPipe/internal/scheduler"
	"github.com/BTreeMap/SpecPipe/internal/store"
	"github.com/BTreeMap/SpecPipe/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultAPIAddr is the default listen address for the API server.
	DefaultAPIAddr = ":8080"
)

// Config holds environment configuration
type Config struct {
	APIAddr        string
	Model          string
	FontPath       string
	SweepCron      string
	MaxTurns       int
	SessionTTL     time.Duration
	GatewayTimeout time.Duration
	Debug          bool
}

func main() {
	// Load environment configuration, then initialize structured logging
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)

	// Parse command line flags (flags override environment)
	apiAddr := flag.String("addr", config.APIAddr, "API server listen address")
	model := flag.String("model", config.Model, "chat model used for question generation and synthesis")
	fontPath := flag.String("font", config.FontPath, "path to a unicode TTF font for PDF export")
	sweepCron := flag.String("sweep-cron", config.SweepCron, "cron expression for the session expiry sweep")
	maxTurns := flag.Int("max-turns", config.MaxTurns, "maximum number of question/answer rounds per session")
	sessionTTL := flag.Duration("session-ttl", config.SessionTTL, "idle duration after which sessions expire")
	gatewayTimeout := flag.Duration("gateway-timeout", config.GatewayTimeout, "timeout for each LLM gateway call")
	flag.Parse()

	// LLM gateway
	client, err := genai.NewClient(genai.WithModel(*model), genai.WithTimeout(*gatewayTimeout))
	if err != nil {
		slog.Error("Failed to initialize GenAI client", "error", err)
		os.Exit(1)
	}

	// Session store
	st := store.NewInMemoryStore(store.WithMaxIdle(*sessionTTL))

	// PDF export is optional: without a glyph resource the endpoint reports
	// export as unavailable. A configured but unreadable font is fatal.
	engineOpts := []flow.EngineOption{flow.WithMaxTurns(*maxTurns)}
	if *fontPath != "" {
		renderer, err := export.NewPDFRenderer(*fontPath)
		if err != nil {
			slog.Error("Failed to initialize PDF renderer", "error", err, "fontPath", *fontPath)
			os.Exit(1)
		}
		engineOpts = append(engineOpts, flow.WithRenderer(renderer))
	} else {
		slog.Warn("No PDF font configured, document export disabled")
	}

	engine := flow.NewEngine(st, client, engineOpts...)

	// Background expiry sweep
	sched := scheduler.NewScheduler()
	defer sched.Stop()
	ttl := *sessionTTL
	if err := sched.AddJob(*sweepCron, func() {
		removed := st.Sweep(time.Now(), ttl)
		slog.Debug("Expiry sweep executed", "removed", removed)
	}); err != nil {
		slog.Error("Failed to schedule expiry sweep", "error", err, "cron", *sweepCron)
		os.Exit(1)
	}

	slog.Info("Bootstrapping SpecPipe",
		"addr", *apiAddr,
		"model", *model,
		"maxTurns", *maxTurns,
		"sessionTTL", *sessionTTL,
		"sweepCron", *sweepCron)

	server := api.NewServer(engine, client, client)
	if err := server.ListenAndServe(*apiAddr); err != nil {
		slog.Error("SpecPipe failed to run", "error", err)
		os.Exit(1)
	}
}

// initializeLogger sets up structured logging
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		APIAddr:        os.Getenv("SPECPIPE_API_ADDR"),
		Model:          os.Getenv("SPECPIPE_MODEL"),
		FontPath:       os.Getenv("SPECPIPE_FONT_PATH"),
		SweepCron:      os.Getenv("SPECPIPE_SWEEP_CRON"),
		MaxTurns:       util.ParseIntEnv("SPECPIPE_MAX_TURNS", flow.DefaultMaxTurns),
		SessionTTL:     util.ParseDurationEnv("SPECPIPE_SESSION_TTL", store.DefaultMaxIdleDuration),
		GatewayTimeout: util.ParseDurationEnv("SPECPIPE_GATEWAY_TIMEOUT", genai.DefaultTimeout),
		Debug:          util.ParseBoolEnv("SPECPIPE_DEBUG", false),
	}

	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}
	if config.SweepCron == "" {
		config.SweepCron = scheduler.DefaultSweepCron
	}

	return config
}
