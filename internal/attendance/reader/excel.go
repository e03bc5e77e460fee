package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// Timecard worksheet layout.
const (
	TimecardSheet = "Timecard"

	colDate     = "日付"
	colHoliday  = "祝日"
	colWorkType = "種別"
	colTimeIn   = "出社時間"
	colTimeOut  = "退社時間"
)

// ExcelReader reads the Timecard worksheet of a local workbook.
type ExcelReader struct {
	path  string
	sheet string
}

func NewExcelReader(path string) *ExcelReader {
	return &ExcelReader{path: path, sheet: TimecardSheet}
}

// Read returns the rows inside r ordered by date.
func (r *ExcelReader) Read(ctx context.Context, rng domain.DateRange) ([]domain.TimecardEntry, error) {
	const op = "read timecard file"

	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.Wrap(domain.ErrNotFound, op, fmt.Errorf("file %s", r.path))
		}
		return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(r.sheet); err != nil || idx < 0 {
		return nil, domain.Wrap(domain.ErrNotFound, op, fmt.Errorf("worksheet %q", r.sheet))
	}

	rows, err := f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
	}
	if len(rows) == 0 {
		return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("worksheet %q has no header", r.sheet))
	}

	cols, err := headerIndex(rows[0], colDate, colHoliday, colWorkType, colTimeIn, colTimeOut)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
	}

	var entries []domain.TimecardEntry
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dateCell := cell(row, cols[colDate])
		if strings.TrimSpace(dateCell) == "" {
			continue
		}
		rowNum := i + 2

		date, err := parseDate(dateCell)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("row %d: %w", rowNum, err))
		}
		if !rng.Contains(date) {
			continue
		}
		timeIn, err := parseClock(cell(row, cols[colTimeIn]))
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("row %d %s: %w", rowNum, colTimeIn, err))
		}
		timeOut, err := parseClock(cell(row, cols[colTimeOut]))
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("row %d %s: %w", rowNum, colTimeOut, err))
		}

		entries = append(entries, domain.TimecardEntry{
			Date:     date,
			Holiday:  parseHoliday(cell(row, cols[colHoliday])),
			WorkType: strings.TrimSpace(cell(row, cols[colWorkType])),
			TimeIn:   timeIn,
			TimeOut:  timeOut,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	logger.DebugLog(ctx, "read %d timecard rows from %s", len(entries), r.path)
	return entries, nil
}

func headerIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	out := make(map[string]int, len(names))
	for _, n := range names {
		i, ok := idx[n]
		if !ok {
			return nil, fmt.Errorf("column %q not found", n)
		}
		out[n] = i
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
