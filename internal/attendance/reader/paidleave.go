package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/domain"
)

// Paid-leave sheet layout.
const (
	PaidLeaveSheet    = "有給休暇管理"
	PaidLeaveFirstRow = 10
	PaidLeaveLastRow  = 54
)

var (
	paidLeaveFlagCols = []struct {
		col string
		typ domain.LeaveType
	}{
		{"O", domain.LeaveFullDay},
		{"R", domain.LeaveMorning},
		{"U", domain.LeaveAfternoon},
	}
	appliedStampCols  = []string{"G", "H", "I", "J"}
	approvedStampCols = []string{"K", "L", "M", "N"}
)

// PaidLeaveReader lists the applications recorded in a paid-leave workbook.
type PaidLeaveReader struct {
	path string
}

func NewPaidLeaveReader(path string) *PaidLeaveReader {
	return &PaidLeaveReader{path: path}
}

// Read walks the rows from 10 until column B is empty.
func (r *PaidLeaveReader) Read(ctx context.Context) ([]domain.PaidLeaveEntry, error) {
	const op = "read paid leave"

	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		return nil, domain.Wrap(domain.ErrNotFound, op, fmt.Errorf("file %s", r.path))
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(PaidLeaveSheet); err != nil || idx < 0 {
		return nil, domain.Wrap(domain.ErrNotFound, op, fmt.Errorf("worksheet %q", PaidLeaveSheet))
	}

	var entries []domain.PaidLeaveEntry
	for row := PaidLeaveFirstRow; row <= PaidLeaveLastRow; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := f.GetCellValue(PaidLeaveSheet, fmt.Sprintf("B%d", row), excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
		}
		if strings.TrimSpace(raw) == "" {
			break
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("row %d: %w", row, err))
		}
		lt, err := readLeaveType(f, row)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("row %d: %w", row, err))
		}
		applied, err := HasPicture(f, PaidLeaveSheet, row, appliedStampCols)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
		}
		approved, err := HasPicture(f, PaidLeaveSheet, row, approvedStampCols)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, op, err)
		}

		entries = append(entries, domain.PaidLeaveEntry{
			ApplicationDate: date,
			LeaveType:       lt,
			StampExists:     applied,
			StampApproved:   approved,
		})
	}
	return entries, nil
}

func readLeaveType(f *excelize.File, row int) (domain.LeaveType, error) {
	for _, c := range paidLeaveFlagCols {
		v, err := f.GetCellValue(PaidLeaveSheet, fmt.Sprintf("%s%d", c.col, row))
		if err != nil {
			return "", err
		}
		if parseHoliday(v) {
			return c.typ, nil
		}
	}
	return "", fmt.Errorf("no leave type flag in O/R/U")
}

// HasPicture reports whether any picture is anchored in one of cols on row.
func HasPicture(f *excelize.File, sheet string, row int, cols []string) (bool, error) {
	for _, col := range cols {
		pics, err := f.GetPictures(sheet, fmt.Sprintf("%s%d", col, row))
		if err != nil {
			return false, err
		}
		if len(pics) > 0 {
			return true, nil
		}
	}
	return false, nil
}
