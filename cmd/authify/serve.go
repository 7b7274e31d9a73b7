package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AlibekovAA/authify/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/authify/backend/internal/common/config"
	srv "github.com/AlibekovAA/authify/backend/internal/common/server"
)

func NewServeCmd() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), bootstrap.StoreKind(store))
		},
	}

	cmd.Flags().StringVar(&store, "store", string(bootstrap.StorePostgres), "user store: postgres or memory")

	return cmd
}

func runServe(parent context.Context, store bootstrap.StoreKind) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return err
	}

	log, err := bootstrap.NewLogger(cfg, "authify")
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(ctx, cfg, log, store)
	if err != nil {
		log.Errorf("failed to start: %v", err)
		return err
	}
	defer app.Close()

	server := srv.New(srv.NewConfig(cfg.HTTPPort, cfg.RequestTimeout), app.Handler())
	return srv.Run(ctx, server, log, "authify")
}
