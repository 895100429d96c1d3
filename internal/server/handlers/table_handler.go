package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/billing"
)

// OrderLedger is the table-side surface used by TableHandler.
type OrderLedger interface {
	GetTable(ctx context.Context, number int) (models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	AddItem(ctx context.Context, number int, menuItemID string, quantity int) (models.Table, error)
	SetItemQuantity(ctx context.Context, number int, menuItemID string, quantity int) (models.Table, error)
	RemoveItem(ctx context.Context, number int, menuItemID string) (models.Table, error)
	ClearTable(ctx context.Context, number int) (models.Table, error)
}

// BillGenerator closes a table's order into a bill.
type BillGenerator interface {
	GenerateBill(ctx context.Context, number int) (billing.Result, error)
}

// TableHandler serves the floor: tables, their orders and checkout.
type TableHandler struct {
	orders  OrderLedger
	billing BillGenerator
	logger  *zap.Logger
}

// NewTableHandler constructs the HTTP handler adapter.
func NewTableHandler(orders OrderLedger, billing BillGenerator, logger *zap.Logger) *TableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableHandler{orders: orders, billing: billing, logger: logger}
}

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// List returns every table.
func (h *TableHandler) List(c *gin.Context) {
	tables, err := h.orders.ListTables(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

// Get returns one table with its order.
func (h *TableHandler) Get(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	table, err := h.orders.GetTable(c.Request.Context(), number)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// AddItem adds a menu item to the table's order.
func (h *TableHandler) AddItem(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	table, err := h.orders.AddItem(c.Request.Context(), number, req.MenuItemID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// SetItemQuantity overwrites the quantity of one line; zero removes it.
func (h *TableHandler) SetItemQuantity(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	table, err := h.orders.SetItemQuantity(c.Request.Context(), number, c.Param("itemID"), *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// RemoveItem drops one line from the order.
func (h *TableHandler) RemoveItem(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	table, err := h.orders.RemoveItem(c.Request.Context(), number, c.Param("itemID"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// GenerateBill checks the table out.
func (h *TableHandler) GenerateBill(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	result, err := h.billing.GenerateBill(c.Request.Context(), number)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Clear frees the table for the next guests.
func (h *TableHandler) Clear(c *gin.Context) {
	number, ok := h.tableNumber(c)
	if !ok {
		return
	}
	table, err := h.orders.ClearTable(c.Request.Context(), number)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) tableNumber(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		badRequest(c, h.logger, "table number must be an integer", err)
		return 0, false
	}
	return number, true
}
