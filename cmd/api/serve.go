package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tasklist/internal/adapter/http"
	"tasklist/internal/adapter/logger"
	"tasklist/internal/config"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())

	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.ServiceName)

	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return http.StartServerWithConfig(ctx, cfg, log)
}
