// Package simpleexcel renders tabular data into .xlsx workbooks. A workbook is
// described by a YAML template whose sections receive their rows through
// BindSectionData.
package simpleexcel

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DataExporter is the main entry point for exporting data.
type DataExporter struct {
	template *ReportTemplate
	// data holds the rows bound to each section ID
	data map[string]interface{}
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a section of data in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Data        interface{}    `yaml:"-"` // Data is bound at runtime
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"` // Struct field name or map key
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font *FontTemplate `yaml:"font"`
	Fill *FillTemplate `yaml:"fill"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// =============================================================================
// Constructors
// =============================================================================

// ParseTemplate decodes and validates a YAML report template.
func ParseTemplate(raw []byte) (*ReportTemplate, error) {
	var tmpl ReportTemplate
	if err := yaml.UnmarshalStrict(raw, &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("template has no sheets")
	}
	seen := make(map[string]bool, len(tmpl.Sheets))
	for i, sheet := range tmpl.Sheets {
		if strings.TrimSpace(sheet.Name) == "" {
			return nil, fmt.Errorf("sheet %d has no name", i+1)
		}
		if seen[sheet.Name] {
			return nil, fmt.Errorf("duplicate sheet %q", sheet.Name)
		}
		seen[sheet.Name] = true
		for j, sec := range sheet.Sections {
			if len(sec.Columns) == 0 {
				return nil, fmt.Errorf("sheet %q section %d has no columns", sheet.Name, j+1)
			}
		}
	}
	return &tmpl, nil
}

func NewDataExporterFromYamlConfig(config string) (*DataExporter, error) {
	tmpl, err := ParseTemplate([]byte(config))
	if err != nil {
		return nil, err
	}
	return &DataExporter{
		template: tmpl,
		data:     make(map[string]interface{}),
	}, nil
}

// =============================================================================
// Data binding
// =============================================================================

// BindSectionData binds data to a section ID.
// data must be a slice of structs, struct pointers or string-keyed maps.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// =============================================================================
// Output
// =============================================================================

type renderSheet struct {
	name     string
	sections []*SectionConfig
}

// layout lists the sheets to render. Template sections are copied so bound
// data never leaks into the template.
func (e *DataExporter) layout() []renderSheet {
	sheets := make([]renderSheet, 0, len(e.template.Sheets))
	for _, st := range e.template.Sheets {
		sections := make([]*SectionConfig, len(st.Sections))
		for j := range st.Sections {
			sec := st.Sections[j]
			if data, ok := e.data[sec.ID]; ok {
				sec.Data = data
			}
			sections[j] = &sec
		}
		sheets = append(sheets, renderSheet{name: st.Name, sections: sections})
	}
	return sheets
}

// StreamTo writes the workbook to w using excelize stream writers.
func (e *DataExporter) StreamTo(w io.Writer) error {
	sheets := e.layout()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet.name, err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet.name, err)
		}

		sw, err := f.NewStreamWriter(sheet.name)
		if err != nil {
			return fmt.Errorf("failed to create stream writer: %w", err)
		}
		if err := streamSections(f, sw, sheet.sections); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet.name, err)
		}
		if err := sw.Flush(); err != nil {
			return fmt.Errorf("failed to flush stream: %w", err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// =============================================================================
// Rendering Logic
// =============================================================================

// streamSections stacks sections vertically with one blank row between them.
func streamSections(f *excelize.File, sw *excelize.StreamWriter, sections []*SectionConfig) error {
	// widths must be set before the first row is written
	widths := map[int]float64{}
	for _, sec := range sections {
		for i, col := range sec.Columns {
			if col.Width > widths[i+1] {
				widths[i+1] = col.Width
			}
		}
	}
	for col, width := range widths {
		if err := sw.SetColWidth(col, col, width); err != nil {
			return fmt.Errorf("failed to set width of column %d: %w", col, err)
		}
	}

	rowNum := 1
	for _, sec := range sections {
		if sec.Title != "" {
			styleID, err := createStyle(f, sec.TitleStyle)
			if err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := sw.SetRow(cell, []interface{}{excelize.Cell{StyleID: styleID, Value: sec.Title}}); err != nil {
				return fmt.Errorf("error writing title: %w", err)
			}
			if len(sec.Columns) > 1 {
				endCell, _ := excelize.CoordinatesToCellName(len(sec.Columns), rowNum)
				if err := sw.MergeCell(cell, endCell); err != nil {
					return fmt.Errorf("error merging title: %w", err)
				}
			}
			rowNum++
		}

		if sec.ShowHeader && len(sec.Columns) > 0 {
			styleID, err := createStyle(f, sec.HeaderStyle)
			if err != nil {
				return err
			}
			headers := make([]interface{}, len(sec.Columns))
			for i, col := range sec.Columns {
				headers[i] = excelize.Cell{StyleID: styleID, Value: col.Header}
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := sw.SetRow(cell, headers); err != nil {
				return fmt.Errorf("error writing header: %w", err)
			}
			rowNum++
		}

		if sec.Data != nil {
			v := reflect.ValueOf(sec.Data)
			if v.Kind() != reflect.Slice {
				return fmt.Errorf("section %q: data must be a slice, got %v", sec.ID, v.Kind())
			}
			for i := 0; i < v.Len(); i++ {
				item := v.Index(i)
				row := make([]interface{}, len(sec.Columns))
				for j, col := range sec.Columns {
					row[j] = extractValue(item, col.FieldName)
				}
				cell, _ := excelize.CoordinatesToCellName(1, rowNum)
				if err := sw.SetRow(cell, row); err != nil {
					return fmt.Errorf("error writing row %d: %w", i+1, err)
				}
				rowNum++
			}
		}

		// Add spacing between sections
		rowNum++
	}

	return nil
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}

	switch item.Kind() {
	case reflect.Struct:
		f := item.FieldByName(fieldName)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		if item.Type().Key().Kind() == reflect.String {
			v := item.MapIndex(reflect.ValueOf(fieldName).Convert(item.Type().Key()))
			if v.IsValid() {
				return v.Interface()
			}
		}
	}
	return ""
}

// createStyle returns 0, the default style, for a nil template.
func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}
	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("invalid style: %w", err)
	}
	return id, nil
}
