package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nevindra/quire/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Serve starts the HTTP service. POST /documents accepts multipart
uploads and runs them through the full pipeline; the remaining endpoints
serve stored documents, rerun rewrites, and export processed text. The
server drains in-flight requests on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := buildApp(ctx, logger, true)
		if err != nil {
			return err
		}
		defer app.close()

		srv := api.New(api.Config{
			MaxUploadMB:   cfg.Server.MaxUploadMB,
			MaxConcurrent: cfg.Server.MaxConcurrent,
			ExportDir:     cfg.Export.Dir,
			ExportFormats: cfg.Export.Formats,
		}, api.Deps{
			Pipeline: app.pipeline,
			Store:    app.store,
			Rewriter: app.rewriter,
			Exporter: app.exporter,
			Logger:   logger,
		})

		httpSrv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      srv.Handler(),
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  30 * time.Second,
		}

		go func() {
			logger.Info("listening", "addr", cfg.Server.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down")

		shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
