package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

// BillBook reads and settles bills.
type BillBook interface {
	GetBill(ctx context.Context, number string) (models.Bill, error)
	ListBills(ctx context.Context, businessDate string) ([]models.Bill, error)
	MarkPaid(ctx context.Context, billNumber string) (models.Bill, error)
}

// BillHandler serves bill lookups and payment.
type BillHandler struct {
	bills  BillBook
	clock  clock.Clock
	logger *zap.Logger
}

// NewBillHandler constructs the HTTP handler adapter.
func NewBillHandler(bills BillBook, clk clock.Clock, logger *zap.Logger) *BillHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillHandler{bills: bills, clock: clk, logger: logger}
}

// List returns the bills of ?date=, today by default.
func (h *BillHandler) List(c *gin.Context) {
	date := c.DefaultQuery("date", h.clock.BusinessDate())
	if _, err := clock.ParseDate(date); err != nil {
		badRequest(c, h.logger, "date must be YYYY-MM-DD", err)
		return
	}

	bills, err := h.bills.ListBills(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// Get returns one bill.
func (h *BillHandler) Get(c *gin.Context) {
	bill, err := h.bills.GetBill(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// Pay marks a bill as paid.
func (h *BillHandler) Pay(c *gin.Context) {
	bill, err := h.bills.MarkPaid(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}
