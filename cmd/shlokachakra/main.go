// Command shlokachakra runs the Sanskrit antakshari game server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/config"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/corpus"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/game"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/httpapi"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/match"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/observe"
	"github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle"
	oraclellm "github.com/upsanskritpratibhakhoj/shlokachakra/internal/oracle/llm"
	"github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm"
	"github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm/anyllm"
	oaillm "github.com/upsanskritpratibhakhoj/shlokachakra/pkg/provider/llm/openai"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "shlokachakra: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "shlokachakra: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	slog.Info("shlokachakra starting",
		"version", version,
		"config", *configPath,
		"listen_addr", listenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Corpus ────────────────────────────────────────────────────────────────
	index, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		slog.Error("failed to load verse corpus", "err", err)
		return 1
	}
	slog.Info("corpus loaded", "verses", index.Len(), "openings", len(index.Openings()))

	// ── Oracle provider ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	adapter, err := buildOracle(cfg, reg)
	if err != nil {
		slog.Error("failed to build oracle provider", "err", err)
		return 1
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	matcher := match.New(index, matcherOptions(cfg.Matcher)...)

	engineOpts := []game.Option{
		game.WithTransliteration(!cfg.Game.TransliterationDisabled),
	}
	if adapter != nil {
		engineOpts = append(engineOpts, game.WithOracle(adapter, cfg.Oracle.Provider.Name))
	}
	engine := game.NewEngine(index, matcher, engineOpts...)

	// ── HTTP server ───────────────────────────────────────────────────────────
	checkers := []httpapi.Checker{
		{Name: "corpus", Check: func(context.Context) error {
			if index.Len() == 0 {
				return errors.New("corpus is empty")
			}
			return nil
		}},
	}
	api := httpapi.New(engine, index, httpapi.WithCheckers(checkers...))

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg, listenAddr, index.Len())

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	grp.Go(func() error {
		<-grpCtx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the built-in LLM provider factories into reg.
// The "openai" entry uses the official client so base_url overrides reach
// OpenAI-compatible servers; everything else goes through any-llm.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{"gemini", "anthropic", "mistral", "groq"} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})
}

// buildOracle instantiates the configured LLM provider and wraps it in the
// oracle adapter. Returns nil when no provider is configured; the engine then
// runs in local-only mode.
func buildOracle(cfg *config.Config, reg *config.Registry) (oracle.Adapter, error) {
	name := cfg.Oracle.Provider.Name
	if name == "" {
		return nil, nil
	}

	p, err := reg.CreateLLM(cfg.Oracle.Provider)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", name, "model", cfg.Oracle.Provider.Model)

	var opts []oraclellm.Option
	if cfg.Oracle.Temperature != 0 {
		opts = append(opts, oraclellm.WithTemperature(cfg.Oracle.Temperature))
	}
	return oraclellm.New(p, opts...), nil
}

// ── Matcher wiring ────────────────────────────────────────────────────────────

// matcherOptions converts the optional matcher config into matcher options,
// leaving the defaults in place for any zero value.
func matcherOptions(mc config.MatcherConfig) []match.Option {
	var opts []match.Option
	if mc.FirstWordThreshold != 0 {
		opts = append(opts, match.WithFirstWordThreshold(mc.FirstWordThreshold))
	}
	if mc.WordThreshold != 0 {
		opts = append(opts, match.WithWordThreshold(mc.WordThreshold))
	}
	if mc.FractionFloor != 0 {
		opts = append(opts, match.WithFractionFloor(mc.FractionFloor))
	}
	if mc.MinMatches != 0 {
		opts = append(opts, match.WithMinMatches(mc.MinMatches))
	}
	if mc.ScoreFloor != 0 {
		opts = append(opts, match.WithScoreFloor(mc.ScoreFloor))
	}
	return opts
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, listenAddr string, verses int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      Shlokachakra — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	oracleLine := "(local only)"
	if name := cfg.Oracle.Provider.Name; name != "" {
		oracleLine = name
		if model := cfg.Oracle.Provider.Model; model != "" {
			oracleLine = name + " / " + model
		}
	}
	if len(oracleLine) > 19 {
		oracleLine = oracleLine[:16] + "…"
	}
	translit := "enabled"
	if cfg.Game.TransliterationDisabled {
		translit = "disabled"
	}
	fmt.Printf("║  Corpus verses   : %-19d ║\n", verses)
	fmt.Printf("║  Oracle          : %-19s ║\n", oracleLine)
	fmt.Printf("║  Transliteration : %-19s ║\n", translit)
	fmt.Printf("║  Listen addr     : %-19s ║\n", listenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}
