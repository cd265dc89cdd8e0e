package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rlei-miris/kit-render-service/internal/server"
	"github.com/rlei-miris/kit-render-service/pkg/config"
	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
	"github.com/rlei-miris/kit-render-service/pkg/render"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
	"github.com/rlei-miris/kit-render-service/pkg/session"
)

// shutdownGrace bounds graceful HTTP shutdown after the context is cancelled.
const shutdownGrace = 10 * time.Second

// newServeCmd creates the serve command that runs the render control service.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		outputRoot string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the render control service",
		Long: `Serve runs the HTTP control surface: open_stage, set_renderer and render.
Configuration is read from a TOML file; --listen and --output-root override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.Addr = listenAddr
			}
			if outputRoot != "" {
				cfg.Render.OutputRoot = outputRoot
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&outputRoot, "output-root", "", "artifact output root (overrides config)")
	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	store, err := newStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("job store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("closing job store", "error", cerr)
		}
	}()

	opener := &scene.FileOpener{DefaultUpAxis: scene.UpAxis(cfg.Stage.DefaultUpAxis)}
	orch := render.NewOrchestrator(render.NewStubBackend(), cfg.Render.OutputRoot,
		render.WithTimeout(cfg.Timeout()),
		render.WithStore(store),
		render.WithLogger(logger))
	srv := server.New(session.New(), opener, orch,
		server.WithStore(store),
		server.WithLogger(logger))

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("render service listening",
			"addr", cfg.Server.Addr,
			"output_root", cfg.Render.OutputRoot,
			"store", cfg.Store.Backend)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newStore builds the job record store selected by the configuration.
func newStore(ctx context.Context, cfg config.StoreConfig) (jobstore.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return jobstore.NewMemoryStore(), nil
	case config.StoreFile:
		dir := cfg.Dir
		if dir == "" {
			dir = "jobs"
		}
		return jobstore.NewFileStore(dir)
	case config.StoreRedis:
		return jobstore.NewRedisStore(ctx, jobstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.StoreMongo:
		return jobstore.NewMongoStore(ctx, jobstore.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return nil, errors.New("unknown store backend " + cfg.Backend)
	}
}
