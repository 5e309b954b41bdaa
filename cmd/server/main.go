package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bakeshop/pkg/app"
)

// main acts as a thin adapter so existing process managers can keep using cmd/server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args[1:], nil); err != nil {
		logger, _ := zap.NewProduction()
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}
