package main

import (
	"context"
	"os"

	"github.com/locvowork/payroll/internal/bootstrap"
	"github.com/locvowork/payroll/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, err, "Failed to initialize application")
		_ = app.Close()
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		logger.ErrorLog(ctx, err, "Server stopped with error")
		os.Exit(1)
	}
}
