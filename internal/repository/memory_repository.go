package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/locvowork/payroll/internal/domain"
)

// MemoryEmployeeRepository keeps employees in a map. It backs
// STORAGE_DRIVER=memory and serves as the storage double in tests.
type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[int64]domain.Employee
	lastID    int64
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{employees: make(map[int64]domain.Employee)}
}

func (r *MemoryEmployeeRepository) Save(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	if err := ctx.Err(); err != nil {
		return domain.Employee{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.IsNew() {
		r.lastID++
		e.ID = r.lastID
	} else if e.ID > r.lastID {
		r.lastID = e.ID
	}
	r.employees[e.ID] = e
	return e, nil
}

func (r *MemoryEmployeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Employee{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	return e, ok, nil
}

func (r *MemoryEmployeeRepository) FindAll(ctx context.Context) ([]domain.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		employees = append(employees, e)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func (r *MemoryEmployeeRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.employees, id)
	return nil
}
