package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/omochice/board-relay/internal/client"
	"github.com/omochice/board-relay/internal/client/tcp"
	"github.com/omochice/board-relay/internal/logging"
)

func main() {
	var serverAddr, logLevel string

	rootCmd := &cobra.Command{
		Use:          "board-relay-client",
		Short:        "Interactive TCP client for board-relay",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, closeLog, err := logging.New(logging.Options{Level: logLevel})
			if err != nil {
				return err
			}
			defer closeLog()

			c := tcp.New(serverAddr, log)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.Connect(ctx); err != nil {
				return err
			}

			fmt.Printf("Connected to %s. Commands: turn, move <san>, quit\n", serverAddr)
			return client.Interact(c, os.Stdin, os.Stdout)
		},
	}
	rootCmd.Flags().StringVarP(&serverAddr, "server", "s", "127.0.0.1:6000", "Server address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Minimum log level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
