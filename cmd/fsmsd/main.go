// Fsmsd is the FSMS engine daemon for a rice mill: it serves the
// controlled document register, the document vault, and compliance task
// extraction over HTTP, and watches the vault's incoming area for new
// files.
//
// Configuration is loaded from a YAML file overridden by FSMS_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (in-memory register)
//	fsmsd
//
//	# Start against PostgreSQL
//	FSMS_DATABASE_URL=postgres://fsms@localhost/fsms fsmsd -config /etc/fsms/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/config"
	fsmshttp "github.com/AmirShafiqueWR/rice-mill-fsms/internal/http"
	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/logging"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/extract"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/textsource"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fsmsd %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("fsmsd: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("starting fsmsd",
		zap.String("version", version),
		zap.String("commit", gitCommit),
	)

	st, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	v, err := vault.New(cfg.Vault, logger.Named("vault"))
	if err != nil {
		return fmt.Errorf("opening vault: %w", err)
	}

	var sink audit.Sink = audit.NopSink{}
	if cfg.Audit.LogPath != "" {
		sink = audit.NewFileSink(cfg.Audit.LogPath, logger.Named("audit"))
	}

	extractCfg, err := extract.LoadConfig(cfg.Extractor.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading extraction rules: %w", err)
	}

	ctrl := control.New(st, v, sink, logger.Named("control"),
		control.WithTaskDisposal(control.TaskDisposalPolicy(cfg.Tasks.DisposalPolicy)),
	)
	svc := extract.NewService(st, textsource.PlainText{}, sink, logger.Named("extract"))

	// Watch the incoming area so operators see arrivals in the log
	// before registering them.
	watcher, err := vault.NewWatcher(v, logger.Named("watcher"))
	if err != nil {
		return fmt.Errorf("starting incoming watcher: %w", err)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("incoming watcher stopped", zap.Error(err))
		}
	}()
	go func() {
		for arrival := range watcher.Arrivals() {
			logger.Info("file arrived in incoming area",
				zap.String("path", arrival.Path),
				zap.Time("at", arrival.Timestamp),
			)
		}
	}()

	srv, err := fsmshttp.NewServer(ctrl, svc, st, extractCfg, logger.Named("http"), &fsmshttp.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// openStore selects PostgreSQL when a database URL is configured and
// the in-memory register otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("using in-memory document register")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	pg := store.NewPgStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}
	logger.Info("using postgresql document register")
	return pg, pool.Close, nil
}
