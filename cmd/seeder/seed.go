package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/locvowork/payroll/internal/database"
	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/logger"
	"github.com/locvowork/payroll/internal/service"
	"github.com/locvowork/payroll/pkg/dataflow"
)

const reindexBatchSize = 500

// defaultEmployees are loaded into an empty store, in this order.
var defaultEmployees = []domain.Employee{
	domain.NewEmployee("Bilbo", "Baggins", "burglar"),
	domain.NewEmployee("Frodo", "Baggins", "thief"),
}

type csvRow struct {
	file string
	line int
	name string
	role string
}

func seed(ctx context.Context, svc service.EmployeeService, opts seedOptions) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		// sequential so the defaults get the first ids
		for _, e := range defaultEmployees {
			saved, err := svc.Create(ctx, e)
			if err != nil {
				return fmt.Errorf("preload %s: %w", e.Name(), err)
			}
			logger.InfoLog(ctx, "Preloading %s", saved)
		}
	} else {
		logger.InfoLog(ctx, "Store already holds %d employees, skipping defaults", len(existing))
	}

	if len(opts.files) == 0 {
		return nil
	}

	sources := make([]dataflow.Stream[csvRow], 0, len(opts.files))
	total := 0
	for _, path := range opts.files {
		rows, err := readCSVFile(path)
		if err != nil {
			return err
		}
		total += len(rows)
		sources = append(sources, dataflow.From(ctx, rows...))
	}

	saved, err := importRows(ctx, svc, dataflow.Merge(ctx, sources...), opts)
	logger.InfoLog(ctx, "Imported %d of %d rows from %d files", saved, total, len(opts.files))
	return err
}

func readCSVFile(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range rows {
		rows[i].file = path
	}
	return rows, nil
}

// readCSV reads name,role records. A header row whose first cell is "name" is skipped.
func readCSV(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var rows []csvRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		rows = append(rows, csvRow{line: line, name: strings.TrimSpace(record[0]), role: strings.TrimSpace(record[1])})
	}
}

// importRows parses and saves rows concurrently. Rows with an invalid name are logged and skipped;
// the first store error that survives its retries is returned.
func importRows(ctx context.Context, svc service.EmployeeService, rows dataflow.Stream[csvRow], opts seedOptions) (int64, error) {
	employees := dataflow.Map(ctx, rows, func(_ context.Context, row csvRow) (domain.Employee, error) {
		e := domain.NewEmployee("", "", row.role)
		if err := e.SetName(row.name); err != nil {
			return domain.Employee{}, fmt.Errorf("%s:%d: %w", row.file, row.line, err)
		}
		return e, nil
	}, dataflow.WithErrorHandler(func(err error) bool {
		logger.WarnLog(ctx, "Skipping row: %v", err)
		return true
	}))

	var saved int64
	err := dataflow.ForEach(ctx, employees, func(ctx context.Context, e domain.Employee) error {
		if _, err := svc.Create(ctx, e); err != nil {
			return err
		}
		atomic.AddInt64(&saved, 1)
		return nil
	},
		dataflow.WithWorkers(opts.workers),
		dataflow.WithRetry(opts.retries, dataflow.ExponentialBackoff(opts.backoff)),
	)
	return atomic.LoadInt64(&saved), err
}

// bulkIndexer is the part of database.ElasticSearchClient reindex needs.
type bulkIndexer interface {
	DropIndex(ctx context.Context) error
	EnsureIndex(ctx context.Context) error
	BulkIndexEmployees(ctx context.Context, employees []domain.Employee) error
}

var _ bulkIndexer = (*database.ElasticSearchClient)(nil)

func reindex(ctx context.Context, repo domain.EmployeeRepository, idx bulkIndexer) error {
	employees, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}

	if err := idx.DropIndex(ctx); err != nil {
		return err
	}
	if err := idx.EnsureIndex(ctx); err != nil {
		return err
	}

	for start := 0; start < len(employees); start += reindexBatchSize {
		end := min(start+reindexBatchSize, len(employees))
		if err := idx.BulkIndexEmployees(ctx, employees[start:end]); err != nil {
			return fmt.Errorf("index employees %d-%d: %w", start, end, err)
		}
	}
	logger.InfoLog(ctx, "Reindexed %d employees", len(employees))
	return nil
}

func clearEmployees(ctx context.Context, svc service.EmployeeService, workers int) error {
	employees, err := svc.List(ctx)
	if err != nil {
		return err
	}

	err = dataflow.ForEach(ctx, dataflow.From(ctx, employees...), func(ctx context.Context, e domain.Employee) error {
		return svc.Delete(ctx, e.ID)
	}, dataflow.WithWorkers(workers))
	if err != nil {
		return err
	}
	logger.InfoLog(ctx, "Deleted %d employees", len(employees))
	return nil
}
