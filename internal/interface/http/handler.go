package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/domain/circulation"
	apperrors "github.com/yanqian/circulabot/pkg/errors"
	"github.com/yanqian/circulabot/pkg/util"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorSvc advisor.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc advisor.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc: advisorSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// EvaluateRequest is the payload for the pure rule evaluation endpoint.
type EvaluateRequest struct {
	LastDigit   *int   `json:"lastDigit" binding:"required"`
	Sticker     string `json:"sticker" binding:"required"`
	Contingency string `json:"contingency"`
	Date        string `json:"date" binding:"required"`
}

// Evaluate runs the restriction rules for a given vehicle and date without
// touching the CAMe portal or any storage.
func (h *Handler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, util.MexicoCity)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "date must use YYYY-MM-DD format", err))
		return
	}

	result, err := circulation.Evaluate(circulation.Input{
		LastDigit:   *req.LastDigit,
		Sticker:     circulation.StickerCategory(req.Sticker),
		Contingency: circulation.ContingencyLevel(req.Contingency),
		Date:        date,
	})
	if err != nil {
		abortWithError(c, toHTTPError(err, "evaluate_failed"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Contingency returns today's resolved CAMe contingency level.
func (h *Handler) Contingency(c *gin.Context) {
	report, err := h.advisorSvc.Contingency(c.Request.Context())
	if err != nil {
		abortWithError(c, toHTTPError(err, "contingency_failed"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// Check runs a full advisory check: contingency lookup, rule evaluation,
// message rendering, optional notification and history record.
func (h *Handler) Check(c *gin.Context) {
	var req advisor.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	record, err := h.advisorSvc.Check(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, toHTTPError(err, "check_failed"))
		return
	}

	c.JSON(http.StatusOK, record)
}

// RecentChecks lists the latest check records, newest first.
func (h *Handler) RecentChecks(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer between 1 and 100", err))
			return
		}
		limit = parsed
	}

	records, err := h.advisorSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, toHTTPError(err, "history_failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"checks": records})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func toHTTPError(err error, fallbackCode string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallbackCode
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "contingency_error"):
		status = http.StatusBadGateway
		code = "contingency_error"
	case apperrors.IsCode(err, "notify_error"):
		status = http.StatusBadGateway
		code = "notify_error"
	case apperrors.IsCode(err, "history_error"):
		code = "history_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
