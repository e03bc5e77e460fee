// Package writer fills the monthly attendance and paid-leave workbooks.
package writer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/attendance/worktype"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// TimecardWriter copies timecard entries into a monthly template.
type TimecardWriter struct {
	templatePath string
	outputPath   string
	layout       Layout
	stamper      Stamper
	stampSize    int
	now          func() time.Time
}

// Option configures a writer.
type Option func(*options)

type options struct {
	layout    Layout
	stamper   Stamper
	stampSize int
	now       func() time.Time
}

func WithLayout(l Layout) Option {
	return func(o *options) { o.layout = l }
}

// WithStamper enables the seal; size is the rendered image size in pixels.
func WithStamper(s Stamper, size int) Option {
	return func(o *options) {
		o.stamper = s
		o.stampSize = size
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{layout: DefaultLayout(), stampSize: 300, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewTimecardWriter writes into outputPath using templatePath as the base.
// Both may be the same file.
func NewTimecardWriter(templatePath, outputPath string, opts ...Option) *TimecardWriter {
	o := buildOptions(opts)
	return &TimecardWriter{
		templatePath: templatePath,
		outputPath:   outputPath,
		layout:       o.layout,
		stamper:      o.stamper,
		stampSize:    o.stampSize,
		now:          o.now,
	}
}

// Write fills month and saves the workbook.
func (w *TimecardWriter) Write(ctx context.Context, month int, employee domain.Employee, entries []domain.TimecardEntry) error {
	const op = "write timecard"

	f, err := excelize.OpenFile(w.templatePath)
	if err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}
	defer f.Close()

	if err := w.fill(ctx, f, month, employee, entries); err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}

	if samePath(w.templatePath, w.outputPath) {
		err = f.Save()
	} else {
		err = f.SaveAs(w.outputPath)
	}
	if err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}
	logger.InfoLog(ctx, "wrote %d timecard entries for %d月 to %s", len(entries), month, w.outputPath)
	return nil
}

// WriteTo fills month and streams the workbook to out. The template is left untouched.
func (w *TimecardWriter) WriteTo(out io.Writer, month int, employee domain.Employee, entries []domain.TimecardEntry) error {
	const op = "write timecard"

	f, err := excelize.OpenFile(w.templatePath)
	if err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}
	defer f.Close()

	if err := w.fill(context.Background(), f, month, employee, entries); err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}
	if err := f.Write(out); err != nil {
		return domain.Wrap(domain.ErrWrite, op, err)
	}
	return nil
}

func (w *TimecardWriter) fill(ctx context.Context, f *excelize.File, month int, employee domain.Employee, entries []domain.TimecardEntry) error {
	l := w.layout
	sheet := l.SheetName(month)
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return domain.Wrap(domain.ErrNotFound, "template sheet", fmt.Errorf("worksheet %q", sheet))
	}

	if w.stamper != nil {
		img, err := w.stamper.PNG(StampLabel, w.now().Format(StampDateFormat), employee.FamilyName, w.stampSize)
		if err != nil {
			return fmt.Errorf("stamp: %w", err)
		}
		if err := replacePicture(f, sheet, l.StampCell, l.StampName, img, w.stampSize, l.StampWidth); err != nil {
			return err
		}
	}

	byDay := make(map[string]domain.TimecardEntry, len(entries))
	for _, e := range entries {
		byDay[e.Key()] = e
	}

	for row := l.FirstRow; row <= l.LastRow; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, ok := intCell(f, sheet, l.MonthColumn, row)
		if !ok {
			logger.DebugLog(ctx, "data rows end at %d", row)
			break
		}
		d, ok := intCell(f, sheet, l.DayColumn, row)
		if !ok {
			logger.DebugLog(ctx, "data rows end at %d", row)
			break
		}

		var derived worktype.Row
		if e, found := byDay[domain.DayKey(m, d)]; found {
			derived = worktype.Derive(e)
		}
		if err := w.writeRow(f, sheet, row, derived); err != nil {
			return err
		}
	}
	return nil
}

type cellValue struct {
	col   string
	value string
}

func (w *TimecardWriter) writeRow(f *excelize.File, sheet string, row int, r worktype.Row) error {
	l := w.layout
	values := []cellValue{
		{l.CategoryColumn, r.Category},
		{l.OvertimeStartColumn, r.OvertimeStart},
		{l.OvertimeEndColumn, r.OvertimeEnd},
		{l.AttendedColumn, worktype.Flag(r.Attended)},
		{l.HomeWorkColumn, worktype.Flag(r.HomeWork)},
	}
	if l.RemarksColumn != "" {
		values = append(values, cellValue{l.RemarksColumn, r.Remarks})
	}
	for _, v := range values {
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", v.col, row), v.value); err != nil {
			return err
		}
	}
	return nil
}

// intCell reads a month or day cell. Anything that is not a whole number ends the data region.
func intCell(f *excelize.File, sheet, col string, row int) (int, bool) {
	v, err := f.GetCellValue(sheet, fmt.Sprintf("%s%d", col, row))
	if err != nil {
		return 0, false
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	if fl, err := strconv.ParseFloat(v, 64); err == nil && fl == float64(int(fl)) {
		return int(fl), true
	}
	return 0, false
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
