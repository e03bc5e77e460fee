package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/domain"
)

func TestPaidLeaveService(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet(reader.PaidLeaveSheet)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "yukyu.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	svc := NewPaidLeaveService()
	ctx := context.Background()
	date := time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC)

	row, err := svc.Add(ctx, path, "山田 太郎", date, "午前休")
	require.NoError(t, err)
	assert.Equal(t, 10, row)

	entries, err := svc.List(ctx, path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LeaveMorning, entries[0].LeaveType)
	assert.Equal(t, date, entries[0].ApplicationDate)

	_, err = svc.Add(ctx, path, "山田 太郎", date, "半休")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
	_, err = svc.Add(ctx, path, "山田", date, "全日休")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}
