// Command server runs the contract archive's HTTP API: uploads,
// contract management, full-text/vector search, and the hybrid QA
// endpoint. Pipeline processing itself is handled by cmd/worker;
// this binary only enqueues jobs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"contractarchive/internal/bootstrap"
	"contractarchive/internal/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "contract-archive-server")
	if err != nil {
		// No logger survives a failed bootstrap, so the process panics
		// with the bootstrap error.
		panic(err)
	}
	defer app.Close()

	server := &httpapi.Server{
		Store:        app.Store,
		Orchestrator: app.Orchestrator,
		QA:           app.QA,
		Blobs:        app.Blobs,
		VectorIndex:  app.VectorIndex,
		MaxFileSize:  app.Config.MaxFileSizeBytes,
		SupportedExt: app.Config.SupportedFormats,
		CORSOrigins:  app.Config.CORSAllowOrigins,
		Logger:       app.Logger,
		StartedAt:    time.Now(),
	}

	httpServer := &http.Server{
		Addr:    app.Config.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		app.Logger.Info("http server listening", zap.String("addr", app.Config.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	app.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("http server shutdown error", zap.Error(err))
	}
}
