// Command worker runs the per-contract processing pipeline: it resumes
// any contract left mid-stage at startup, then blocks on the Redis
// dispatch queue for new jobs pushed by cmd/server's upload/reprocess
// endpoints.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"contractarchive/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "contract-archive-worker")
	if err != nil {
		panic(err)
	}
	defer app.Close()

	if err := app.Orchestrator.ResumePending(ctx); err != nil {
		app.Logger.Error("resume pending contracts failed", zap.Error(err))
	}

	app.Logger.Info("worker listening for pipeline jobs")
	if err := app.Orchestrator.Run(ctx); err != nil && ctx.Err() == nil {
		app.Logger.Fatal("worker run loop failed", zap.Error(err))
	}
	app.Logger.Info("worker stopped")
}
