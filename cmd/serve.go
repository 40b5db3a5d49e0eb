package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"redbird/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a long-lived service, checking the schedule every minute",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBot(GetConfig())
		if err != nil {
			return err
		}
		defer b.Publisher.Close()

		mgr := worker.NewManager(&worker.Clock{Runner: b})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
