package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trialapi/internal/app"
	"trialapi/internal/handlers"
	"trialapi/internal/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New("main").Function("runServe")

	application, err := app.NewWithConfig(cfg)
	if err != nil {
		return log.Err("failed to initialize app", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	server, err := handlers.NewServer(application)
	if err != nil {
		return log.Err("failed to build server", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	address := fmt.Sprintf(":%d", cfg.ServerPort)

	group.Go(func() error {
		log.Info("Starting server", "address", address, "environment", cfg.Environment)
		if err := server.Listen(address); err != nil {
			return log.Err("server stopped", err, "address", address)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down server")
		return server.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Server stopped")
	return nil
}
