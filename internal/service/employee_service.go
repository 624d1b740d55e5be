package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/locvowork/payroll/internal/apperror"
	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/internal/logger"
)

// EmployeeService holds the employee use cases behind the HTTP handlers.
type EmployeeService interface {
	List(ctx context.Context) ([]domain.Employee, error)
	// Get fails with an apperror.CodeNotFound error when id is unknown.
	Get(ctx context.Context, id int64) (domain.Employee, error)
	Create(ctx context.Context, e domain.Employee) (domain.Employee, error)
	// Replace updates the employee with id or creates it at that id.
	Replace(ctx context.Context, id int64, e domain.Employee) (domain.Employee, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]domain.Employee, error)
	// Export writes every employee as an xlsx workbook.
	Export(ctx context.Context, w io.Writer) error
}

type employeeService struct {
	repo     domain.EmployeeRepository
	index    domain.EmployeeIndex
	exporter *EmployeeExporter
}

// NewEmployeeService wires the service. index and exporter may be nil, which disables
// search and export respectively.
func NewEmployeeService(repo domain.EmployeeRepository, index domain.EmployeeIndex, exporter *EmployeeExporter) EmployeeService {
	return &employeeService{
		repo:     repo,
		index:    index,
		exporter: exporter,
	}
}

func (s *employeeService) List(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

func (s *employeeService) Get(ctx context.Context, id int64) (domain.Employee, error) {
	e, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("get employee %d: %w", id, err)
	}
	if !ok {
		return domain.Employee{}, apperror.EmployeeNotFound(id)
	}
	return e, nil
}

func (s *employeeService) Create(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	// ids are always assigned by the store on create
	e.ID = 0
	saved, err := s.repo.Save(ctx, e)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("create employee: %w", err)
	}

	logger.InfoLog(ctx, "Created %s", saved)
	s.syncIndex(ctx, saved)
	return saved, nil
}

func (s *employeeService) Replace(ctx context.Context, id int64, e domain.Employee) (domain.Employee, error) {
	existing, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("replace employee %d: %w", id, err)
	}

	var target domain.Employee
	if ok {
		target = existing
		target.FirstName = e.FirstName
		target.LastName = e.LastName
		target.Role = e.Role
	} else {
		target = e
		target.ID = id
	}

	saved, err := s.repo.Save(ctx, target)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("replace employee %d: %w", id, err)
	}

	if ok {
		logger.InfoLog(ctx, "Updated %s", saved)
	} else {
		logger.InfoLog(ctx, "Created %s at requested id", saved)
	}
	s.syncIndex(ctx, saved)
	return saved, nil
}

func (s *employeeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}

	if s.index != nil {
		if err := s.index.RemoveEmployee(ctx, id); err != nil {
			logger.WarnLog(ctx, "Failed to remove employee %d from search index: %v", id, err)
		}
	}
	return nil
}

func (s *employeeService) Search(ctx context.Context, query string) ([]domain.Employee, error) {
	if query == "" {
		return nil, apperror.New(apperror.CodeValidation, "Query parameter q is required")
	}
	if s.index == nil {
		return nil, apperror.Wrap(apperror.CodeUnavailable, "Employee search is not configured", domain.ErrSearchDisabled)
	}

	found, err := s.index.SearchByName(ctx, query)
	if errors.Is(err, domain.ErrSearchDisabled) {
		return nil, apperror.Wrap(apperror.CodeUnavailable, "Employee search is not configured", err)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnavailable, "Employee search is unavailable", err)
	}
	return found, nil
}

func (s *employeeService) Export(ctx context.Context, w io.Writer) error {
	if s.exporter == nil {
		return apperror.New(apperror.CodeUnavailable, "Employee export is not configured")
	}

	employees, err := s.List(ctx)
	if err != nil {
		return err
	}
	return s.exporter.Write(w, employees)
}

// syncIndex is best effort: the store is the source of truth and a failed index
// write is repaired by the seeder's reindex command.
func (s *employeeService) syncIndex(ctx context.Context, e domain.Employee) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexEmployee(ctx, e); err != nil {
		logger.WarnLog(ctx, "Failed to index employee %d: %v", e.ID, err)
	}
}
