package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/domain"
)

func writeSource(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(reader.TimecardSheet)
	require.NoError(t, err)
	header := []interface{}{"日付", "祝日", "種別", "出社時間", "退社時間"}
	require.NoError(t, f.SetSheetRow(reader.TimecardSheet, "A1", &header))
	for i := range rows {
		require.NoError(t, f.SetSheetRow(reader.TimecardSheet, fmt.Sprintf("A%d", i+2), &rows[i]))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeMonthSheet(t *testing.T, path string, month int) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%d月", month)
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for day := 1; day <= 31; day++ {
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("C%d", day+9), month))
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", day+9), day))
	}
	require.NoError(t, f.SaveAs(path))
}

func cellOf(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func excelReaders(source string) (domain.TimecardReader, error) {
	return reader.NewExcelReader(source), nil
}

func december() func() time.Time {
	return func() time.Time { return time.Date(2024, 12, 25, 9, 0, 0, 0, time.Local) }
}

func TestTransfer(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "timecard.xlsx")
	output := filepath.Join(dir, "kinmu.xlsx")
	writeSource(t, source, [][]interface{}{
		{"2024/12/21", "", "在宅", "9:00", "17:31"},
		{"2024/12/22", "", "有休", "", ""},
	})
	writeMonthSheet(t, output, 12)

	svc := NewTransferService(excelReaders, WithTransferClock(december()))
	n, err := svc.Transfer(context.Background(), TransferRequest{Source: source, Output: output, Name: "山田 太郎"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "出勤", cellOf(t, output, "12月", "F30"))
	assert.Equal(t, "17:40", cellOf(t, output, "12月", "L30"))
	assert.Equal(t, "17:31", cellOf(t, output, "12月", "M30"))
	assert.Equal(t, "1", cellOf(t, output, "12月", "W30"))
	assert.Equal(t, "有給休暇", cellOf(t, output, "12月", "F31"))
	assert.Empty(t, cellOf(t, output, "12月", "F29"))
}

func TestTransfer_Validation(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "kinmu.xlsx")
	writeMonthSheet(t, output, 12)
	svc := NewTransferService(excelReaders, WithTransferClock(december()))
	ctx := context.Background()

	_, err := svc.Transfer(ctx, TransferRequest{Source: "x.xlsx", Output: filepath.Join(dir, "missing.xlsx"), Name: "山田 太郎"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Transfer(ctx, TransferRequest{Source: "x.xlsx", Output: output, Name: "山田 太郎", Month: 13})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.Transfer(ctx, TransferRequest{Source: "x.xlsx", Output: output, Name: "山田太郎"})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	start := time.Date(2024, 12, 20, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, -1)
	_, err = svc.Transfer(ctx, TransferRequest{Source: "x.xlsx", Output: output, Name: "山田 太郎", Range: domain.DateRange{Start: &start, End: &end}})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	// missing source surfaces the reader error
	_, err = svc.Transfer(ctx, TransferRequest{Source: filepath.Join(dir, "none.xlsx"), Output: output, Name: "山田 太郎"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the sheet for the default month must exist
	svc = NewTransferService(excelReaders, WithTransferClock(func() time.Time { return time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local) }))
	source := filepath.Join(dir, "timecard.xlsx")
	writeSource(t, source, nil)
	_, err = svc.Transfer(ctx, TransferRequest{Source: source, Output: output, Name: "山田 太郎"})
	assert.ErrorIs(t, err, domain.ErrWrite)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_ReaderFactoryError(t *testing.T) {
	output := filepath.Join(t.TempDir(), "kinmu.xlsx")
	writeMonthSheet(t, output, 12)
	boom := domain.Wrap(domain.ErrAuthentication, "google sheet config", errors.New("no credentials"))
	svc := NewTransferService(func(string) (domain.TimecardReader, error) { return nil, boom }, WithTransferClock(december()))

	_, err := svc.Transfer(context.Background(), TransferRequest{Source: "google", Output: output, Name: "山田 太郎"})
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "timecard.xlsx")
	output := filepath.Join(dir, "kinmu.xlsx")
	writeSource(t, source, nil)
	writeMonthSheet(t, output, 12)

	svc := NewTransferService(excelReaders, WithTransferClock(december()))
	req := TransferRequest{Source: source, Output: output, Name: "山田 太郎"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type run struct {
		n   int
		err error
	}
	runs := make(chan run, 100)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, req, 20*time.Millisecond, func(n int, err error) {
			runs <- run{n, err}
		})
	}()

	// keep touching the source until the watcher is up and a clean run lands
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case r := <-runs:
			if r.err == nil && r.n == 1 {
				break wait
			}
		case <-tick.C:
			writeSource(t, source, [][]interface{}{{"2024/12/02", "", "出勤", "9:00", "18:00"}})
		case <-deadline:
			t.Fatal("no transfer after the source changed")
		}
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, "出勤", cellOf(t, output, "12月", "F11"))
}

func TestWatch_Rejects(t *testing.T) {
	svc := NewTransferService(excelReaders)
	ctx := context.Background()

	err := svc.Watch(ctx, TransferRequest{Source: "google"}, 0, func(int, error) {})
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	path := filepath.Join(t.TempDir(), "same.xlsx")
	err = svc.Watch(ctx, TransferRequest{Source: path, Output: path}, 0, func(int, error) {})
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
