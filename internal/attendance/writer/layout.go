package writer

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// layout.go - Template layout loading and validation

// Layout describes where the timecard template keeps its data.
type Layout struct {
	// SheetFormat is a fmt format taking the month number.
	SheetFormat string `yaml:"sheet_format"`
	FirstRow    int    `yaml:"first_row"`
	LastRow     int    `yaml:"last_row"`

	MonthColumn         string `yaml:"month_column"`
	DayColumn           string `yaml:"day_column"`
	CategoryColumn      string `yaml:"category_column"`
	OvertimeStartColumn string `yaml:"overtime_start_column"`
	OvertimeEndColumn   string `yaml:"overtime_end_column"`
	AttendedColumn      string `yaml:"attended_column"`
	HomeWorkColumn      string `yaml:"home_work_column"`
	// RemarksColumn is optional; remarks are not written when empty.
	RemarksColumn string `yaml:"remarks_column"`

	StampCell string `yaml:"stamp_cell"`
	StampName string `yaml:"stamp_name"`
	// StampWidth is the rendered size of the seal in pixels.
	StampWidth int `yaml:"stamp_width"`
}

// DefaultLayout is the monthly attendance template layout.
func DefaultLayout() Layout {
	return Layout{
		SheetFormat:         "%d月",
		FirstRow:            10,
		LastRow:             40,
		MonthColumn:         "C",
		DayColumn:           "D",
		CategoryColumn:      "F",
		OvertimeStartColumn: "L",
		OvertimeEndColumn:   "M",
		AttendedColumn:      "V",
		HomeWorkColumn:      "W",
		StampCell:           "T4",
		StampName:           "syokuin",
		StampWidth:          70,
	}
}

// LoadLayout loads a layout from a YAML file
func LoadLayout(path string) (*Layout, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening layout file: %w", err)
	}
	defer file.Close()

	return LoadLayoutFromReader(file)
}

// LoadLayoutFromReader loads a layout from an io.Reader. Missing fields keep
// their default value.
func LoadLayoutFromReader(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}

	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing YAML layout: %w", err)
	}

	if err := ValidateLayout(&layout); err != nil {
		return nil, fmt.Errorf("validating layout: %w", err)
	}

	return &layout, nil
}

// ValidateLayout validates the layout structure
func ValidateLayout(l *Layout) error {
	if l == nil {
		return fmt.Errorf("layout is nil")
	}
	if !strings.Contains(l.SheetFormat, "%d") {
		return fmt.Errorf("sheet_format %q must contain %%d", l.SheetFormat)
	}
	if l.FirstRow < 1 || l.LastRow < l.FirstRow {
		return fmt.Errorf("invalid row window %d..%d", l.FirstRow, l.LastRow)
	}

	cols := map[string]string{
		"month_column":          l.MonthColumn,
		"day_column":            l.DayColumn,
		"category_column":       l.CategoryColumn,
		"overtime_start_column": l.OvertimeStartColumn,
		"overtime_end_column":   l.OvertimeEndColumn,
		"attended_column":       l.AttendedColumn,
		"home_work_column":      l.HomeWorkColumn,
	}
	for name, col := range cols {
		if !isValidColumn(col) {
			return fmt.Errorf("%s: invalid column %q", name, col)
		}
	}
	if l.RemarksColumn != "" && !isValidColumn(l.RemarksColumn) {
		return fmt.Errorf("remarks_column: invalid column %q", l.RemarksColumn)
	}

	if !isValidCell(l.StampCell) {
		return fmt.Errorf("stamp_cell: invalid cell %q (expected A1)", l.StampCell)
	}
	if l.StampName == "" {
		return fmt.Errorf("stamp_name is required")
	}
	if l.StampWidth <= 0 {
		return fmt.Errorf("stamp_width must be positive")
	}
	return nil
}

// SheetName returns the worksheet holding month.
func (l *Layout) SheetName(month int) string {
	return fmt.Sprintf(l.SheetFormat, month)
}

var (
	columnPattern = regexp.MustCompile(`^[A-Z]{1,3}$`)
	cellPattern   = regexp.MustCompile(`^[A-Z]{1,3}\d+$`)
)

func isValidColumn(s string) bool {
	return columnPattern.MatchString(strings.ToUpper(s))
}

// isValidCell checks if a string is a valid cell reference (e.g., "T4")
func isValidCell(s string) bool {
	return cellPattern.MatchString(strings.ToUpper(s))
}
