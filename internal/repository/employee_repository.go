package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/repository/builder"
)

const employeeTable = "employee"

var employeeColumns = []string{"id", "first_name", "last_name", "role"}

const createEmployeeTable = `
	CREATE TABLE IF NOT EXISTS employee (
		id         BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL DEFAULT ''
	)
`

// Rows written with an explicit id bypass the sequence. The sequence is only
// ever raised to that id, never lowered, so generated ids are not reused.
const raiseEmployeeSequence = `
	SELECT setval('employee_id_seq', $1)
	WHERE $1 >= (SELECT last_value FROM employee_id_seq)
`

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a PostgreSQL backed EmployeeRepository
func NewEmployeeRepository(db *sql.DB) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

// EnsureSchema creates the employee table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createEmployeeTable); err != nil {
		return fmt.Errorf("failed to create employee table: %w", err)
	}
	return nil
}

func (r *employeeRepository) Save(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	if e.IsNew() {
		return r.insert(ctx, e)
	}
	return r.upsert(ctx, e)
}

func (r *employeeRepository) insert(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	query, args := insertEmployeeQuery(e)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&e.ID); err != nil {
		return domain.Employee{}, fmt.Errorf("failed to insert employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) upsert(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args := upsertEmployeeQuery(e)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Employee{}, fmt.Errorf("failed to save employee %d: %w", e.ID, err)
	}

	if _, err := tx.ExecContext(ctx, raiseEmployeeSequence, e.ID); err != nil {
		return domain.Employee{}, fmt.Errorf("failed to raise employee id sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Employee{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, bool, error) {
	query, args := findEmployeeQuery(id)

	var e domain.Employee
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, false, nil
	}
	if err != nil {
		return domain.Employee{}, false, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return e, true, nil
}

func (r *employeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	query, args := listEmployeesQuery()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Role); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return employees, nil
}

func (r *employeeRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args := deleteEmployeeQuery(id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, err)
	}
	return nil
}

func insertEmployeeQuery(e domain.Employee) (string, []interface{}) {
	return builder.NewSQLBuilder().
		Insert(employeeTable, "first_name", "last_name", "role").
		Values(e.FirstName, e.LastName, e.Role).
		Returning("id").
		Build()
}

func upsertEmployeeQuery(e domain.Employee) (string, []interface{}) {
	return builder.NewSQLBuilder().
		Insert(employeeTable, employeeColumns...).
		Values(e.ID, e.FirstName, e.LastName, e.Role).
		OnConflictUpdate([]string{"id"}, "first_name", "last_name", "role").
		Build()
}

func findEmployeeQuery(id int64) (string, []interface{}) {
	return builder.NewSQLBuilder().
		Select(employeeColumns...).
		From(employeeTable).
		Where("id = ?", id).
		Build()
}

func listEmployeesQuery() (string, []interface{}) {
	return builder.NewSQLBuilder().
		Select(employeeColumns...).
		From(employeeTable).
		OrderBy("id ASC").
		Build()
}

func deleteEmployeeQuery(id int64) (string, []interface{}) {
	return builder.NewSQLBuilder().
		Delete(employeeTable).
		Where("id = ?", id).
		Build()
}
