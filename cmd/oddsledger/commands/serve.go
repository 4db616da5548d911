package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oddsledger/internal/api"
	"oddsledger/internal/auth"
	"oddsledger/internal/ocr"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is required to serve the HTTP API")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, store, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		srv := api.NewServer(api.Config{
			Addr:           cfg.HTTPAddr,
			Engine:         eng,
			Recognizer:     ocr.NewTesseract(cfg.OCR),
			Verifier:       auth.NewVerifier(cfg.JWTSecret),
			UploadMaxBytes: cfg.UploadMaxBytes,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			log.Info().Msg("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		log.Info().Msg("Server shutdown complete")
		return nil
	},
}
