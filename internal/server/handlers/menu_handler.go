package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/service/menu"
)

// MenuCatalog is the menu management surface.
type MenuCatalog interface {
	List(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	Lookup(ctx context.Context, id string) (models.MenuItem, error)
	Create(ctx context.Context, in menu.CreateInput) (models.MenuItem, error)
	Update(ctx context.Context, id string, patch models.MenuItemPatch) (models.MenuItem, error)
}

// MenuHandler serves the menu catalog.
type MenuHandler struct {
	menu   MenuCatalog
	logger *zap.Logger
}

// NewMenuHandler constructs the HTTP handler adapter.
func NewMenuHandler(catalog MenuCatalog, logger *zap.Logger) *MenuHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuHandler{menu: catalog, logger: logger}
}

// List returns the menu, optionally by ?category= and ?available=true.
func (h *MenuHandler) List(c *gin.Context) {
	filter := models.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	}
	items, err := h.menu.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get returns one menu item.
func (h *MenuHandler) Get(c *gin.Context) {
	item, err := h.menu.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create adds a menu item.
func (h *MenuHandler) Create(c *gin.Context) {
	var req menu.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	item, err := h.menu.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update edits a menu item.
func (h *MenuHandler) Update(c *gin.Context) {
	var patch models.MenuItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	item, err := h.menu.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
