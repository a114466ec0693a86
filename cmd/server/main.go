package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulexconde/formbuilder/internal/config"
	"github.com/paulexconde/formbuilder/internal/events"
	"github.com/paulexconde/formbuilder/internal/handlers"
	"github.com/paulexconde/formbuilder/internal/pkg/idgen"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	pkgstore "github.com/paulexconde/formbuilder/internal/pkg/store"
	"github.com/paulexconde/formbuilder/internal/pkg/workerpool"
	"github.com/paulexconde/formbuilder/internal/services"
	"github.com/paulexconde/formbuilder/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewForEnvironment(cfg.Environment)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer kv.Close()

	ids, err := idgen.ByName(cfg.IDStrategy)
	if err != nil {
		return err
	}

	sink, err := openSubmitter(cfg, log)
	if err != nil {
		return err
	}

	pool := workerpool.NewWorkerPool(ctx, cfg.WorkerCount, cfg.WorkerQueueSize, log)
	submitter := events.NewAsyncSubmitter(sink, pool, 3, time.Second, log)

	cols := pkgstore.NewCollections(kv)
	authoring := services.NewAuthoringService(cols, ids, log)
	render := services.NewRenderService(cols, submitter, ids)
	sessions := services.NewSessionService(render, log)

	hm := handlers.NewHandlerManager(authoring, render, sessions, handlers.NewValidator(), log)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      hm.NewRouter(cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server",
			"address", httpServer.Addr,
			"store", cfg.StoreDriver,
			"publisher", cfg.SubmitPublisher,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-shutdown:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.LogError(err, "HTTP server failed")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "server shutdown")
	}

	// drain queued submissions before the sink goes away
	pool.Shutdown(shutdownCtx)
	if err := submitter.Close(); err != nil {
		log.LogError(err, "close submitter")
	}

	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.KV, error) {
	switch cfg.StoreDriver {
	case "memory", "":
		return pkgstore.NewMemoryStore(), nil
	case "postgres", "sqlite":
		driver := "postgres"
		if cfg.StoreDriver == "sqlite" {
			driver = "sqlite3"
		}

		db, err := pkgstore.OpenSQL(ctx, driver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.StoreDriver, err)
		}

		s := pkgstore.NewSQLStore(db, "", log)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		s.SetHooks(store.Hooks{AfterSave: []store.AfterSaveHook{pkgstore.LogWrites(log)}})
		return s, nil
	case "redis":
		client, err := pkgstore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return pkgstore.NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openSubmitter(cfg *config.Config, log logger.Logger) (events.Submitter, error) {
	switch cfg.SubmitPublisher {
	case "log", "":
		return events.NewLogSubmitter(log), nil
	case "kafka":
		s, err := events.NewKafkaSubmitter(cfg.KafkaBrokers, cfg.SubmitTopic, log)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown submit publisher %q", cfg.SubmitPublisher)
	}
}
