package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := base.WithContext(context.Background())

	ctx = WithLogger(ctx, map[string]interface{}{"message_id": "INBOX_42"})
	InfoLog(ctx, "saved %s", "INBOX_42")
	ErrorLog(ctx, "persist failed: %v", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"message_id":"INBOX_42"`)
	assert.Contains(t, out, `"message":"saved INBOX_42"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	l := getLogger(context.Background())
	assert.Same(t, &globalLogger, l)
}
