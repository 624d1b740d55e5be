package domain

import (
	"context"
	"errors"
)

// ErrSearchDisabled is returned by an EmployeeIndex that has no backend configured.
var ErrSearchDisabled = errors.New("employee search is not configured")

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	// Save inserts e when it has no ID yet, otherwise it writes the row with e.ID,
	// creating it when missing. The returned employee always carries its ID.
	Save(ctx context.Context, e Employee) (Employee, error)
	// FindByID reports false when no employee has the given id.
	FindByID(ctx context.Context, id int64) (Employee, bool, error)
	FindAll(ctx context.Context) ([]Employee, error)
	// DeleteByID does nothing when the id is unknown.
	DeleteByID(ctx context.Context, id int64) error
}

// EmployeeIndex keeps a searchable copy of employees.
type EmployeeIndex interface {
	IndexEmployee(ctx context.Context, e Employee) error
	RemoveEmployee(ctx context.Context, id int64) error
	SearchByName(ctx context.Context, query string) ([]Employee, error)
}
