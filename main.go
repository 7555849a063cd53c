package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"

	"ideahub/microservices/projects-service/bootstrap"
	"ideahub/microservices/projects-service/config"
	"ideahub/microservices/projects-service/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logging.InitLogger(logging.Options{
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Console: cfg.IsDevelopment(),
	})

	if err := cfg.Validate(); err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	inj := bootstrap.BuildContainer(cfg)
	router, err := do.Invoke[http.Handler](inj)
	if err != nil {
		logging.Logger.Fatalf("Event ID: STARTUP_FAILED, Description: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.SeedAdmin(ctx, inj); err != nil {
		logging.Logger.Errorf("Event ID: ADMIN_SEED_FAILED, Description: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Logger.Infof("Event ID: SERVER_START, Description: Projects service listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_ERROR, Description: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.Shutdown(closeCtx, inj)
}
