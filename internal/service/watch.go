package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

// DefaultDebounce coalesces the burst of events a spreadsheet save produces.
const DefaultDebounce = 500 * time.Millisecond

// Watch runs the transfer whenever the source workbook changes, until ctx
// ends. Each run is reported to onRun. The directory is watched because
// spreadsheet applications replace the file on save.
func (s *TransferService) Watch(ctx context.Context, req TransferRequest, debounce time.Duration, onRun func(n int, err error)) error {
	const op = "watch source"

	if strings.EqualFold(strings.TrimSpace(req.Source), reader.SourceGoogle) {
		return domain.Wrap(domain.ErrUnsupported, op, errors.New("only local workbooks can be watched"))
	}
	src, err := filepath.Abs(req.Source)
	if err != nil {
		return domain.Wrap(domain.ErrInvalidValue, op, err)
	}
	if out, err := filepath.Abs(req.Output); err == nil && out == src {
		return domain.Wrap(domain.ErrInvalidValue, op, fmt.Errorf("source and output are the same file %s", src))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(src)); err != nil {
		return domain.Wrap(domain.ErrNotFound, op, err)
	}
	logger.InfoLog(ctx, "watching %s", src)

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != src || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.DebugLog(ctx, "source changed: %s", ev)
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnLog(ctx, "watcher: %v", err)
		case <-timer.C:
			n, err := s.Transfer(ctx, req)
			onRun(n, err)
		}
	}
}
