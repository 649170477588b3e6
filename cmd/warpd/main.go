// Command warpd is the development broadcast server for warpsockets. Lobbies
// are held in memory only.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gschussler/warpsockets/internal/server"
)

var (
	flagAddr    string
	flagHistory int
)

var rootCmd = &cobra.Command{
	Use:   "warpd",
	Short: "In-memory lobby broadcast server",
	RunE:  runServer,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAddr, "addr", ":8085", "listen address")
	flags.IntVar(&flagHistory, "history", 50, "messages replayed to a joining member")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	hub := server.NewHub(flagHistory, logger)
	srv := &http.Server{
		Addr:    flagAddr,
		Handler: server.New(hub, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", flagAddr).Msg("warpd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
