package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/locvowork/mywork_tools/internal/attendance/writer"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// ReaderFactory returns the timecard reader for a --source value.
type ReaderFactory func(source string) (domain.TimecardReader, error)

// TransferRequest is one transfer run.
type TransferRequest struct {
	Source string
	Output string
	// Template defaults to Output, which is then edited in place.
	Template string
	Name     string
	// Month defaults to the current month.
	Month int
	Range domain.DateRange
}

// TransferService copies timecard entries from a source into the monthly sheet.
type TransferService struct {
	readers    ReaderFactory
	writerOpts []writer.Option
	now        func() time.Time
}

// TransferOption configures a TransferService.
type TransferOption func(*TransferService)

// WithWriterOptions passes options to every TimecardWriter.
func WithWriterOptions(opts ...writer.Option) TransferOption {
	return func(s *TransferService) { s.writerOpts = append(s.writerOpts, opts...) }
}

// WithTransferClock replaces time.Now for the default month.
func WithTransferClock(now func() time.Time) TransferOption {
	return func(s *TransferService) { s.now = now }
}

func NewTransferService(readers ReaderFactory, opts ...TransferOption) *TransferService {
	s := &TransferService{readers: readers, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TransferService) validate(req *TransferRequest) (domain.Employee, error) {
	const op = "transfer"

	if _, err := os.Stat(req.Output); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Employee{}, domain.Wrap(domain.ErrNotFound, op, fmt.Errorf("output file %s does not exist", req.Output))
		}
		return domain.Employee{}, domain.Wrap(domain.ErrWrite, op, err)
	}
	if req.Month == 0 {
		req.Month = int(s.now().Month())
	}
	if req.Month < 1 || req.Month > 12 {
		return domain.Employee{}, domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("month %d is not within 1-12", req.Month))
	}
	if r := req.Range; r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return domain.Employee{}, domain.Wrap(domain.ErrInvalidValue, op, errors.New("end date is before start date"))
	}
	if req.Template == "" {
		req.Template = req.Output
	}
	return domain.EmployeeFromFullName(req.Name)
}

// Transfer reads the entries and writes them. It returns the number of
// entries read.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (int, error) {
	employee, err := s.validate(&req)
	if err != nil {
		return 0, err
	}

	ctx = logger.WithLogger(ctx, map[string]interface{}{"source": req.Source, "month": req.Month})

	r, err := s.readers(req.Source)
	if err != nil {
		return 0, err
	}
	entries, err := r.Read(ctx, req.Range)
	if err != nil {
		return 0, err
	}
	logger.DebugLog(ctx, "read %d timecard entries", len(entries))

	w := writer.NewTimecardWriter(req.Template, req.Output, s.writerOpts...)
	if err := w.Write(ctx, req.Month, employee, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
