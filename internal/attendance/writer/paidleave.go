package writer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/attendance/worktype"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

const (
	paidLeaveStampColumn = "G"
	paidLeaveStampWidth  = 50
)

// PaidLeaveWriter records paid-leave applications in the management sheet.
type PaidLeaveWriter struct {
	path      string
	stamper   Stamper
	stampSize int
	now       func() time.Time
}

// NewPaidLeaveWriter edits the workbook at path in place.
func NewPaidLeaveWriter(path string, opts ...Option) *PaidLeaveWriter {
	o := buildOptions(opts)
	return &PaidLeaveWriter{path: path, stamper: o.stamper, stampSize: o.stampSize, now: o.now}
}

// Add writes an application for date. An existing row with the same date is
// overwritten, otherwise the first empty row is used. It returns the row number.
func (w *PaidLeaveWriter) Add(ctx context.Context, employee domain.Employee, date time.Time, lt domain.LeaveType) (int, error) {
	const op = "add paid leave"
	sheet := reader.PaidLeaveSheet

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return 0, domain.Wrap(domain.ErrWrite, op, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return 0, domain.Wrap(domain.ErrWrite, op, domain.Wrap(domain.ErrNotFound, "paid leave sheet", fmt.Errorf("worksheet %q", sheet)))
	}

	row, err := findLeaveRow(f, date)
	if err != nil {
		return 0, err
	}

	if w.stamper != nil {
		img, err := w.stamper.PNG(StampLabel, w.now().Format(StampDateFormat), employee.FamilyName, w.stampSize)
		if err != nil {
			return 0, domain.Wrap(domain.ErrWrite, op, err)
		}
		cell := fmt.Sprintf("%s%d", paidLeaveStampColumn, row)
		if err := replacePicture(f, sheet, cell, "syokuin_"+cell, img, w.stampSize, paidLeaveStampWidth); err != nil {
			return 0, domain.Wrap(domain.ErrWrite, op, err)
		}
	}

	values := []cellValue{
		{"O", worktype.Flag(lt == domain.LeaveFullDay)},
		{"R", worktype.Flag(lt == domain.LeaveMorning)},
		{"U", worktype.Flag(lt == domain.LeaveAfternoon)},
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), date); err != nil {
		return 0, domain.Wrap(domain.ErrWrite, op, err)
	}
	for _, v := range values {
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", v.col, row), v.value); err != nil {
			return 0, domain.Wrap(domain.ErrWrite, op, err)
		}
	}

	if err := f.Save(); err != nil {
		return 0, domain.Wrap(domain.ErrWrite, op, err)
	}
	logger.InfoLog(ctx, "paid leave %s %s written at row %d", date.Format("2006-01-02"), lt, row)
	return row, nil
}

func findLeaveRow(f *excelize.File, date time.Time) (int, error) {
	want := date.Format("2006-01-02")
	for row := reader.PaidLeaveFirstRow; row <= reader.PaidLeaveLastRow; row++ {
		raw, err := f.GetCellValue(reader.PaidLeaveSheet, fmt.Sprintf("B%d", row), excelize.Options{RawCellValue: true})
		if err != nil {
			return 0, domain.Wrap(domain.ErrWrite, "find paid leave row", err)
		}
		if strings.TrimSpace(raw) == "" {
			return row, nil
		}
		got, err := reader.ParseSheetDate(raw)
		if err == nil && got.Format("2006-01-02") == want {
			return row, nil
		}
	}
	return 0, domain.Wrap(domain.ErrInvalidValue, "find paid leave row",
		fmt.Errorf("no free row between B%d and B%d", reader.PaidLeaveFirstRow, reader.PaidLeaveLastRow))
}
