package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// SettingsStore reads and edits the restaurant settings.
type SettingsStore interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// SettingsHandler serves the settings singleton.
type SettingsHandler struct {
	settings SettingsStore
	logger   *zap.Logger
}

// NewSettingsHandler constructs the HTTP handler adapter.
func NewSettingsHandler(settings SettingsStore, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{settings: settings, logger: logger}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	current, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	updated, err := h.settings.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
