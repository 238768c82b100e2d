package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness and dependency status.
type HealthHandler struct {
	DB  *sql.DB
	RDB *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, RDB: rdb}
}

// Live always answers 200 once the process is up.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Ready checks the database and, when configured, Redis. Returns 503
// when the database is unreachable; a missing Redis only degrades
// caching and rate limiting, so it does not fail readiness.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := echo.Map{"database": "ok"}
	status := http.StatusOK
	if err := h.DB.PingContext(ctx); err != nil {
		deps["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.RDB != nil {
		deps["redis"] = "ok"
		if err := h.RDB.Ping(ctx).Err(); err != nil {
			deps["redis"] = "unreachable"
		}
	}
	return c.JSON(status, deps)
}
