package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/proflink/internal/adapters/http/api"
	"github.com/okian/proflink/internal/adapters/repository"
	"github.com/okian/proflink/internal/adapters/source"
	app "github.com/okian/proflink/internal/app"
	"github.com/okian/proflink/internal/config"
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/score"
	"github.com/okian/proflink/internal/fixtures"
	"github.com/okian/proflink/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// setup initializes logging and loads configuration; the --config flag
// takes precedence over PROFLINK_CONFIG.
func setup(ctx context.Context) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, err
	}
	if cfgFile != "" {
		if err := os.Setenv("PROFLINK_CONFIG", cfgFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// buildService assembles the matching service from configuration.
func buildService(cfg *config.Config) (*app.Service, error) {
	var store repository.Store
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		s, err := repository.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		store = repository.NewMemory()
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithStore(store),
		app.WithSnapshotSource(source.NewFileSnapshotSource(cfg.DataDir)),
		app.WithDatasetSources(
			source.NewFileDatasetSource(cfg.DataDir, model.ProviderRMP),
			source.NewFileDatasetSource(cfg.DataDir, model.ProviderBluebook),
		),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithBlockScanCap(cfg.BlockScanCap),
		app.WithEngineOptions(engineOptions(cfg)...),
	)
	return svc, nil
}

// engineOptions maps configuration onto scoring engine options. Weight
// validation stays in the engine so a bad sum fails at Start.
func engineOptions(cfg *config.Config) []score.Option {
	weights := score.Weights{
		Name:       cfg.Weights["name"],
		Subject:    cfg.Weights["subject"],
		Uniqueness: cfg.Weights["uniqueness"],
		Volume:     cfg.Weights["volume"],
	}
	minSamples := make(map[model.Provider]int, len(cfg.MinSamples))
	for k, v := range cfg.MinSamples {
		minSamples[model.Provider(k)] = v
	}
	return []score.Option{
		score.WithWeights(weights),
		score.WithAcceptFloor(cfg.AcceptFloor),
		score.WithConfidenceFloor(cfg.ConfidenceFloor),
		score.WithMinSamples(minSamples),
		score.WithVolumePivot(cfg.VolumePivot),
	}
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	log := logger.Get()

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

func runMatch(term string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	result, err := svc.RunMatching(ctx, term)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runGen(term, out string, instructors int, seed int64) error {
	ctx := context.Background()

	if err := logger.Init(); err != nil {
		return err
	}

	cfg := fixtures.DefaultConfig()
	cfg.Term = term
	cfg.OutDir = out
	cfg.Instructors = instructors
	cfg.Seed = seed
	return fixtures.Generate(ctx, cfg)
}
