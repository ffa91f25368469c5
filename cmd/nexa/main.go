package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexa-assistant/nexa/internal/actions"
	"github.com/nexa-assistant/nexa/internal/config"
	"github.com/nexa-assistant/nexa/internal/geo"
	"github.com/nexa-assistant/nexa/internal/history"
	"github.com/nexa-assistant/nexa/internal/intent"
	"github.com/nexa-assistant/nexa/internal/llm"
	"github.com/nexa-assistant/nexa/internal/metrics"
	"github.com/nexa-assistant/nexa/internal/provider"
	"github.com/nexa-assistant/nexa/internal/scheduler"
	"github.com/nexa-assistant/nexa/internal/server"
	"github.com/nexa-assistant/nexa/internal/version"
	"github.com/nexa-assistant/nexa/internal/weather"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("starting", zap.String("version", version.Get().String()))

	functionProvider, functionRef, err := providerFor(cfg, cfg.Models.FunctionModel)
	if err != nil {
		return fmt.Errorf("function model: %w", err)
	}
	answerProvider, answerRef, err := providerFor(cfg, cfg.Models.AnswerModel)
	if err != nil {
		return fmt.Errorf("answer model: %w", err)
	}

	var cache *redis.Client
	if cfg.Cache.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer cache.Close()
	}

	db, err := history.Open(cfg.Store.Driver, cfg.Store.DataDir, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	store := history.NewStore(db)

	locator := geo.NewLocator(geo.NewResolver(logger), cache, cfg.Cache.TTL.Std(), logger)
	owm := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.Units, cache, cfg.Cache.TTL.Std(), logger)

	personality := intent.NewPersonality()
	if cfg.Assistant.Personality != "" {
		personality = intent.NewPersonalityWith(cfg.Assistant.Personality)
	}

	pipelineMetrics := metrics.NewPipeline()

	// The registry and the LLM service reference each other (the service
	// builds its prompt from the registry), so wire actions first with a
	// service that is filled in below.
	var svc *llm.Service
	answerer := answererFunc(func(ctx context.Context, prompt, systemRole string) (string, error) {
		return svc.InferAnswer(ctx, prompt, systemRole)
	})
	acts := actions.NewService(owm, locator, answerer, actions.StubSearcher{}, personality, logger)
	registry, err := intent.NewRegistry(acts.Specs()...)
	if err != nil {
		return err
	}
	svc = llm.NewService(functionProvider, answerProvider, functionRef, answerRef, registry, logger)

	orch := intent.NewOrchestrator(svc, registry, personality, logger,
		intent.WithRecorder(store),
		intent.WithMetrics(pipelineMetrics))

	sched := scheduler.New(logger)
	if cfg.Location.Refresh != "" {
		err := sched.Add("location-refresh", cfg.Location.Refresh, func(ctx context.Context) error {
			_, err := locator.Refresh(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("scheduling location refresh: %w", err)
		}
	}

	handlers := server.NewHandlers(orch, store, pipelineMetrics.Handler(), logger)
	router := server.Router(handlers, cfg.Server.Mode)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start()
	defer sched.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildLogger(mode string) (*zap.Logger, error) {
	if mode == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func providerFor(cfg *config.Config, modelRef string) (provider.Provider, provider.ModelRef, error) {
	ref, err := provider.ParseModelRef(modelRef)
	if err != nil {
		return nil, "", err
	}
	pc, ok := cfg.Models.Providers[ref.Provider()]
	if !ok {
		return nil, "", fmt.Errorf("model ref %q names unknown provider %q", modelRef, ref.Provider())
	}
	p, err := provider.FromConfig(provider.ProviderConfig{
		ID:      ref.Provider(),
		BaseURL: pc.BaseURL,
		APIKey:  pc.APIKey,
		API:     pc.API,
	})
	if err != nil {
		return nil, "", err
	}
	return p, ref, nil
}

// answererFunc adapts a closure to the actions.Answerer interface.
type answererFunc func(ctx context.Context, prompt, systemRole string) (string, error)

func (f answererFunc) InferAnswer(ctx context.Context, prompt, systemRole string) (string, error) {
	return f(ctx, prompt, systemRole)
}
