package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/omochice/board-relay/internal/config"
	"github.com/omochice/board-relay/internal/engine"
	"github.com/omochice/board-relay/internal/logging"
	"github.com/omochice/board-relay/internal/server"
)

var configFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:          "board-relay",
		Short:        "Relay one shared chess game between TCP and WebSocket clients",
		SilenceUsage: true,
		RunE:         runServer,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Directory containing config.yaml")

	flags := rootCmd.Flags()
	flags.StringP("address", "a", "127.0.0.1:6000", "TCP address to listen on")
	flags.StringP("websocket-address", "w", "", "WebSocket address to listen on (disabled when empty)")
	flags.Duration("tick-interval", 16*time.Millisecond, "Period of the host loop")
	flags.String("fen", "", "Starting position in FEN")
	flags.String("log-level", "info", "Minimum log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("log-file", "", "Write logs to this file instead of stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFlag, cmd.Flags())
	if err != nil {
		return err
	}

	log, closeLog, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFilePath,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	game, err := engine.NewChess(cfg.StartingFEN)
	if err != nil {
		return err
	}

	srv := server.New(cfg, game, log)
	if err := srv.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		srv.Stop()
		return nil
	})

	return g.Wait()
}
