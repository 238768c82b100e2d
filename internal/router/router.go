// Package router registers the HTTP routes and their middleware
// chains.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicle-reserve-backend/internal/handler"
	"vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Service     *handler.ServiceHandler
	TimeSlot    *handler.TimeSlotHandler
	Reservation *handler.ReservationHandler
	Health      *handler.HealthHandler
}

// Register wires all routes. cacheMW fronts the public list endpoints
// only; availability and everything authenticated always hit the
// database.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cacheMW echo.MiddlewareFunc, promReg prometheus.Gatherer) {
	e.GET("/healthz", h.Health.Live)
	e.GET("/readyz", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	api := e.Group("/api")

	// auth
	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me, middleware.JWTAuth(jwtSecret))

	jwt := middleware.JWTAuth(jwtSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// users
	user := api.Group("/user", jwt)
	user.GET("/line/:lineId", h.User.GetByLineID, adminOnly)
	user.GET("/:id", h.User.GetByID)
	user.POST("", h.User.Create, adminOnly)
	user.PUT("/:id", h.User.Update)
	user.DELETE("/:id", h.User.Delete, adminOnly)

	// service catalog; list reads are public and cached
	svc := api.Group("/service")
	svc.GET("", h.Service.List, cacheMW)
	svc.GET("/:id", h.Service.Get)
	svc.POST("", h.Service.Create, jwt, adminOnly)
	svc.PUT("/:id", h.Service.Update, jwt, adminOnly)
	svc.DELETE("/:id", h.Service.Delete, jwt, adminOnly)

	// time-slot templates; active list is public and cached,
	// availability is public but never cached
	slot := api.Group("/time-slot")
	slot.GET("/active", h.TimeSlot.ListActive, cacheMW)
	slot.GET("/available", h.TimeSlot.Available)
	slot.GET("", h.TimeSlot.List, jwt, adminOnly)
	slot.GET("/:id", h.TimeSlot.Get, jwt, adminOnly)
	slot.POST("", h.TimeSlot.Create, jwt, adminOnly)
	slot.PUT("/:id", h.TimeSlot.Update, jwt, adminOnly)
	slot.DELETE("/:id", h.TimeSlot.Delete, jwt, adminOnly)

	// reservations; all authenticated, role decides scope
	res := api.Group("/reserve", jwt)
	res.POST("", h.Reservation.Create)
	res.GET("", h.Reservation.List)
	res.GET("/:id", h.Reservation.Get)
	res.PUT("/:id", h.Reservation.Update)
	res.POST("/:id/cancel", h.Reservation.Cancel)
	res.DELETE("/:id", h.Reservation.Cancel)
	res.DELETE("/:id/purge", h.Reservation.Purge, adminOnly)
}
