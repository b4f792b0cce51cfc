package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DBへの疎通確認（*sql.DBのPingContextを渡す）
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{ping: ping}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/health", h.health)
}

func (h *HealthHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, SuccessResponse{Message: "furniture order CRM API"})
}

func (h *HealthHandler) health(c echo.Context) error {
	if h.ping == nil {
		return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "unknown"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "ok"})
}
