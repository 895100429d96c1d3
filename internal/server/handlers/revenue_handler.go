package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

// RevenueReader exposes the revenue ledger queries.
type RevenueReader interface {
	DailyRevenue(ctx context.Context, date string) (models.RevenueRecord, error)
	MonthlyRevenue(ctx context.Context, year int, month time.Month) (models.MonthlyRevenue, error)
}

// RevenueHandler serves revenue reports.
type RevenueHandler struct {
	revenue RevenueReader
	clock   clock.Clock
	logger  *zap.Logger
}

// NewRevenueHandler constructs the HTTP handler adapter.
func NewRevenueHandler(revenue RevenueReader, clk clock.Clock, logger *zap.Logger) *RevenueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevenueHandler{revenue: revenue, clock: clk, logger: logger}
}

// Daily returns the revenue record of ?date=, today by default.
func (h *RevenueHandler) Daily(c *gin.Context) {
	date := c.DefaultQuery("date", h.clock.BusinessDate())
	if _, err := clock.ParseDate(date); err != nil {
		badRequest(c, h.logger, "date must be YYYY-MM-DD", err)
		return
	}

	record, err := h.revenue.DailyRevenue(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Monthly returns the totals of ?year=&month=, the current month by default.
func (h *RevenueHandler) Monthly(c *gin.Context) {
	now := h.clock.Now()

	year, err := queryInt(c, "year", now.Year())
	if err != nil {
		badRequest(c, h.logger, "year must be an integer", err)
		return
	}
	month, err := queryInt(c, "month", int(now.Month()))
	if err != nil || month < 1 || month > 12 {
		badRequest(c, h.logger, "month must be between 1 and 12", err)
		return
	}

	monthly, err := h.revenue.MonthlyRevenue(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, monthly)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
