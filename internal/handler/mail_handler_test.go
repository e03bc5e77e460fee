package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/mail/mailtest"
)

type stubIndex struct {
	keyword string
	limit   int
	msgs    []domain.MailMessage
	err     error
}

func (s *stubIndex) Index(ctx context.Context, m domain.MailMessage) error { return nil }

func (s *stubIndex) Search(ctx context.Context, keyword string, limit int) ([]domain.MailMessage, error) {
	s.keyword, s.limit = keyword, limit
	return s.msgs, s.err
}

func serve(t *testing.T, h *MailHandler, target string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	e := echo.New()
	h.Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	body := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func stored() *mailtest.Repository {
	repo := mailtest.NewRepository()
	repo.Messages["INBOX_5"] = domain.MailMessage{
		ID:         "INBOX_5",
		Subject:    "勤務表",
		ReceivedAt: time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC),
		Sender:     domain.Contact{Email: "boss@example.com", Name: "Boss"},
		To:         []domain.Contact{{Email: "yamada@example.com"}},
	}
	return repo
}

func TestHealth(t *testing.T) {
	rec, body := serve(t, NewMailHandler(stored(), nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body["data"]))
}

func TestGetHandler(t *testing.T) {
	h := NewMailHandler(stored(), nil)

	rec, body := serve(t, h, "/mails/INBOX_5")
	assert.Equal(t, http.StatusOK, rec.Code)
	var dto MailMessageDTO
	require.NoError(t, json.Unmarshal(body["data"], &dto))
	assert.Equal(t, "勤務表", dto.Subject)
	assert.Equal(t, "Boss", dto.Sender.Name)
	assert.Equal(t, []ContactDTO{{Email: "yamada@example.com"}}, dto.To)

	rec, body = serve(t, h, "/mails/INBOX_404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(body["error"]), "INBOX_404")
}

func TestSearchHandler(t *testing.T) {
	idx := &stubIndex{msgs: []domain.MailMessage{{ID: "INBOX_5", Subject: "勤務表"}}}
	h := NewMailHandler(stored(), idx)

	rec, body := serve(t, h, "/mails/search?q=%E5%8B%A4%E5%8B%99&limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "勤務", idx.keyword)
	assert.Equal(t, 5, idx.limit)
	var dtos []MailMessageDTO
	require.NoError(t, json.Unmarshal(body["data"], &dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "INBOX_5", dtos[0].ID)

	rec, _ = serve(t, h, "/mails/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, "/mails/search?q=x&limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	idx.err = errors.New("cluster red")
	rec, body = serve(t, h, "/mails/search?q=x")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(body["error"]), "cluster red")
	assert.Equal(t, 20, idx.limit)

	rec, _ = serve(t, NewMailHandler(stored(), nil), "/mails/search?q=x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
