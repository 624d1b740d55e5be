package service

import (
	"fmt"
	"io"
	"os"

	"github.com/locvowork/payroll/internal/domain"
	"github.com/locvowork/payroll/pkg/simpleexcel"
)

// EmployeeSectionID is the template section that receives the employee rows.
const EmployeeSectionID = "employees"

// DefaultExportTemplate is used when no template file is configured.
// Column field names refer to ExportRow fields.
const DefaultExportTemplate = `
sheets:
  - name: "Employees"
    sections:
      - id: "employees"
        title: "Employees"
        show_header: true
        title_style:
          font:
            bold: true
        header_style:
          font:
            bold: true
            color: "#FFFFFF"
          fill:
            color: "#4F81BD"
        columns:
          - field_name: "ID"
            header: "ID"
            width: 8
          - field_name: "FirstName"
            header: "First Name"
            width: 20
          - field_name: "LastName"
            header: "Last Name"
            width: 20
          - field_name: "Name"
            header: "Name"
            width: 30
          - field_name: "Role"
            header: "Role"
            width: 20
`

// ExportRow is the shape of one exported employee.
type ExportRow struct {
	ID        int64
	FirstName string
	LastName  string
	Name      string
	Role      string
}

// EmployeeExporter renders employees through a validated report template.
// It is safe for concurrent use: every export builds its own workbook.
type EmployeeExporter struct {
	template string
}

// NewEmployeeExporter loads the template at path, or the default template when path is empty.
func NewEmployeeExporter(path string) (*EmployeeExporter, error) {
	if path == "" {
		return newEmployeeExporter(DefaultExportTemplate)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load export template %s: %w", path, err)
	}
	return newEmployeeExporter(string(raw))
}

func newEmployeeExporter(template string) (*EmployeeExporter, error) {
	if _, err := simpleexcel.NewDataExporterFromYamlConfig(template); err != nil {
		return nil, fmt.Errorf("invalid export template: %w", err)
	}
	return &EmployeeExporter{template: template}, nil
}

// Write renders employees as an xlsx workbook into w.
func (x *EmployeeExporter) Write(w io.Writer, employees []domain.Employee) error {
	exporter, err := simpleexcel.NewDataExporterFromYamlConfig(x.template)
	if err != nil {
		return fmt.Errorf("invalid export template: %w", err)
	}

	rows := make([]ExportRow, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, ExportRow{
			ID:        e.ID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Name:      e.Name(),
			Role:      e.Role,
		})
	}

	exporter.BindSectionData(EmployeeSectionID, rows)
	if err := exporter.StreamTo(w); err != nil {
		return fmt.Errorf("export employees: %w", err)
	}
	return nil
}
