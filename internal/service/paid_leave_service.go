package service

import (
	"context"
	"time"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/attendance/writer"
	"github.com/locvowork/mywork_tools/internal/domain"
)

// PaidLeaveService lists and records paid-leave applications.
type PaidLeaveService struct {
	writerOpts []writer.Option
}

func NewPaidLeaveService(opts ...writer.Option) *PaidLeaveService {
	return &PaidLeaveService{writerOpts: opts}
}

func (s *PaidLeaveService) List(ctx context.Context, path string) ([]domain.PaidLeaveEntry, error) {
	return reader.NewPaidLeaveReader(path).Read(ctx)
}

// Add records an application and returns the sheet row it went to.
func (s *PaidLeaveService) Add(ctx context.Context, path, name string, date time.Time, leaveType string) (int, error) {
	employee, err := domain.EmployeeFromFullName(name)
	if err != nil {
		return 0, err
	}
	lt, err := domain.ParseLeaveType(leaveType)
	if err != nil {
		return 0, err
	}
	return writer.NewPaidLeaveWriter(path, s.writerOpts...).Add(ctx, employee, date, lt)
}
