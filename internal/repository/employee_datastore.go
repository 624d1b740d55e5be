package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/locvowork/payroll/internal/database"
	"github.com/locvowork/payroll/internal/domain"
)

// employeeStore is the part of database.DatastoreClient the repository needs.
type employeeStore interface {
	PutEmployee(ctx context.Context, id int64, entity *database.EmployeeEntity) (int64, error)
	GetEmployee(ctx context.Context, id int64) (*database.EmployeeEntity, error)
	GetAllEmployees(ctx context.Context) (map[int64]database.EmployeeEntity, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

type datastoreEmployeeRepository struct {
	store employeeStore
}

// NewDatastoreEmployeeRepository creates a Cloud Datastore backed EmployeeRepository
func NewDatastoreEmployeeRepository(dc *database.DatastoreClient) domain.EmployeeRepository {
	return &datastoreEmployeeRepository{store: dc}
}

func (r *datastoreEmployeeRepository) Save(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	id, err := r.store.PutEmployee(ctx, e.ID, toEmployeeEntity(e))
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to put employee: %w", err)
	}
	e.ID = id
	return e, nil
}

func (r *datastoreEmployeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, bool, error) {
	entity, err := r.store.GetEmployee(ctx, id)
	if err != nil {
		return domain.Employee{}, false, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	if entity == nil {
		return domain.Employee{}, false, nil
	}
	return fromEmployeeEntity(id, *entity), true, nil
}

func (r *datastoreEmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	entities, err := r.store.GetAllEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}

	employees := make([]domain.Employee, 0, len(entities))
	for id, entity := range entities {
		employees = append(employees, fromEmployeeEntity(id, entity))
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func (r *datastoreEmployeeRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.store.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, err)
	}
	return nil
}

func toEmployeeEntity(e domain.Employee) *database.EmployeeEntity {
	return &database.EmployeeEntity{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Role:      e.Role,
	}
}

func fromEmployeeEntity(id int64, entity database.EmployeeEntity) domain.Employee {
	return domain.Employee{
		ID:        id,
		FirstName: entity.FirstName,
		LastName:  entity.LastName,
		Role:      entity.Role,
	}
}
