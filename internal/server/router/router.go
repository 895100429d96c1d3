package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted under /api/v1.
type Handlers struct {
	Tables   *handlers.TableHandler
	Bills    *handlers.BillHandler
	Revenue  *handlers.RevenueHandler
	Menu     *handlers.MenuHandler
	Settings *handlers.SettingsHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := r.Group("/api/v1")

	menu := api.Group("/menu")
	menu.GET("", h.Menu.List)
	menu.POST("", h.Menu.Create)
	menu.GET("/:id", h.Menu.Get)
	menu.PATCH("/:id", h.Menu.Update)

	tables := api.Group("/tables")
	tables.GET("", h.Tables.List)
	tables.GET("/:number", h.Tables.Get)
	tables.POST("/:number/items", h.Tables.AddItem)
	tables.PUT("/:number/items/:itemID", h.Tables.SetItemQuantity)
	tables.DELETE("/:number/items/:itemID", h.Tables.RemoveItem)
	tables.POST("/:number/bill", h.Tables.GenerateBill)
	tables.POST("/:number/clear", h.Tables.Clear)

	bills := api.Group("/bills")
	bills.GET("", h.Bills.List)
	bills.GET("/:number", h.Bills.Get)
	bills.POST("/:number/pay", h.Bills.Pay)

	revenue := api.Group("/revenue")
	revenue.GET("/daily", h.Revenue.Daily)
	revenue.GET("/monthly", h.Revenue.Monthly)

	api.GET("/settings", h.Settings.Get)
	api.PATCH("/settings", h.Settings.Update)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
