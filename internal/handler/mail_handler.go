package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/logger"
)

const maxSearchLimit = 100

type MailHandler struct {
	repo  domain.MailRepository
	index domain.MailIndex
}

// NewMailHandler serves stored messages. index may be nil, which disables search.
func NewMailHandler(repo domain.MailRepository, index domain.MailIndex) *MailHandler {
	return &MailHandler{repo: repo, index: index}
}

// Register mounts the routes on e.
func (h *MailHandler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthHandler)
	g := e.Group("/mails")
	g.GET("/search", h.SearchHandler)
	g.GET("/:id", h.GetHandler)
}

func (h *MailHandler) HealthHandler(c echo.Context) error {
	return ResponseSuccess(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MailHandler) GetHandler(c echo.Context) error {
	id := c.Param("id")
	m, err := h.repo.FindByID(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return ResponseError(c, http.StatusNotFound, "Message "+id+" not found", nil)
	}
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "find message %s: %v", id, err)
		return ResponseError(c, http.StatusInternalServerError, "Failed to get message", err)
	}
	return ResponseSuccess(c, http.StatusOK, newMailMessageDTO(*m))
}

func (h *MailHandler) SearchHandler(c echo.Context) error {
	if h.index == nil {
		return ResponseError(c, http.StatusServiceUnavailable, "Search index is not configured", nil)
	}
	q := c.QueryParam("q")
	if q == "" {
		return ResponseError(c, http.StatusBadRequest, "Query parameter q is required", nil)
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			return ResponseError(c, http.StatusBadRequest, "Invalid limit", err)
		}
		limit = n
	}

	msgs, err := h.index.Search(c.Request().Context(), q, limit)
	if err != nil {
		return ResponseError(c, http.StatusBadGateway, "Search failed", err)
	}
	out := make([]MailMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMailMessageDTO(m))
	}
	return ResponseSuccess(c, http.StatusOK, out)
}
