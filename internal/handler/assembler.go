package handler

import (
	"net/url"
	"strconv"

	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/pkg/hal"
)

const (
	// RelEmployees links a single employee back to the employee collection.
	RelEmployees = "employees"
	// EmployeeListRel is the _embedded key of employee collections.
	EmployeeListRel = "employeeList"
)

// EmployeeModel is the wire representation of an employee.
type EmployeeModel struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Name      string `json:"name"`
}

// EmployeesURI is the collection URI under base, e.g. http://localhost:8080/employees.
func EmployeesURI(base string) string {
	return base + "/employees"
}

// EmployeeURI is the URI of a single employee under base.
func EmployeeURI(base string, id int64) string {
	return EmployeesURI(base) + "/" + strconv.FormatInt(id, 10)
}

// EmployeeSearchURI is the URI of a name search under base.
func EmployeeSearchURI(base, query string) string {
	return EmployeesURI(base) + "/search?" + url.Values{"q": {query}}.Encode()
}

// EmployeeModelAssembler decorates employees with their links.
type EmployeeModelAssembler struct{}

func (EmployeeModelAssembler) ToModel(base string, e domain.Employee) hal.Model[EmployeeModel] {
	return hal.NewModel(
		EmployeeModel{
			ID:        e.ID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Role:      e.Role,
			Name:      e.Name(),
		},
		hal.NewLink(hal.RelSelf, EmployeeURI(base, e.ID)),
		hal.NewLink(RelEmployees, EmployeesURI(base)),
	)
}

// ToCollectionModel embeds every employee under employeeList, selfHref is the collection's own URI.
func (a EmployeeModelAssembler) ToCollectionModel(base, selfHref string, es []domain.Employee) hal.CollectionModel[EmployeeModel] {
	models := make([]hal.Model[EmployeeModel], 0, len(es))
	for _, e := range es {
		models = append(models, a.ToModel(base, e))
	}
	return hal.NewCollectionModel(EmployeeListRel, models, hal.NewLink(hal.RelSelf, selfHref))
}
