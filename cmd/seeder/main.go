package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/payroll/internal/bootstrap"
	"github.com/locvowork/payroll/internal/logger"
)

type seedOptions struct {
	files   []string
	workers int
	retries int
	backoff time.Duration
}

func main() {
	app := bootstrap.NewApp()
	err := newRootCmd(app).ExecuteContext(context.Background())
	if closeErr := app.Close(); closeErr != nil {
		logger.ErrorLog(context.Background(), closeErr, "Failed to close stores")
	}
	if err != nil {
		logger.ErrorLog(context.Background(), err, "Seeder failed")
		os.Exit(1)
	}
}

func newRootCmd(app *bootstrap.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Maintain employee data in the configured store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.InitializeStores(cmd.Context())
		},
	}

	opts := seedOptions{}
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Preload the default employees, plus more from CSV files of name,role rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), "seed", func(ctx context.Context) error {
				return seed(ctx, app.Service, opts)
			})
		},
	}
	seedCmd.Flags().StringArrayVar(&opts.files, "file", nil, "CSV file with name,role rows, repeatable")
	seedCmd.Flags().IntVar(&opts.workers, "workers", 4, "concurrent writers for CSV rows")
	seedCmd.Flags().IntVar(&opts.retries, "retries", 3, "retries per row on store errors")
	seedCmd.Flags().DurationVar(&opts.backoff, "backoff", 200*time.Millisecond, "initial retry backoff, doubled on every retry")

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Elasticsearch index from the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), "reindex", func(ctx context.Context) error {
				if app.Search == nil {
					return fmt.Errorf("elasticsearch is not configured or unreachable")
				}
				return reindex(ctx, app.Repo, app.Search)
			})
		},
	}

	var clearWorkers int
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every employee",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), "clear", func(ctx context.Context) error {
				return clearEmployees(ctx, app.Service, clearWorkers)
			})
		},
	}
	clearCmd.Flags().IntVar(&clearWorkers, "workers", 4, "concurrent deletes")

	root.AddCommand(seedCmd, reindexCmd, clearCmd)
	return root
}

func runCommand(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.InfoLog(ctx, "%s finished in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}
