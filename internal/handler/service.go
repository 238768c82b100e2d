package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/domain"
	mw "vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
)

// ServiceHandler serves the maintenance catalog endpoints. List reads
// sit behind the response cache; every write invalidates it.
type ServiceHandler struct {
	Services *repository.ServiceRepo
	Cache    *mw.CacheInvalidator
}

func NewServiceHandler(s *repository.ServiceRepo, cache *mw.CacheInvalidator) *ServiceHandler {
	return &ServiceHandler{Services: s, Cache: cache}
}

type serviceReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Duration    *int64  `json:"duration"`
	IsActive    *bool   `json:"isActive"`
}

type serviceResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	Duration    *int64    `json:"duration"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toServiceResp(s model.Service) serviceResp {
	return serviceResp{
		ID: s.ID, Name: s.Name, Description: s.Description, Price: s.Price,
		Duration: s.Duration, IsActive: s.IsActive, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r serviceReq) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.Validation("service name is required")
	}
	if r.Price != nil && *r.Price < 0 {
		return domain.Validation("price must not be negative")
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return domain.Validation("duration must be positive")
	}
	return nil
}

// List returns the catalog. Public; responses carry a short public
// cache policy on top of the Redis layer.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Services.List(ctx)
	if err != nil {
		return err
	}
	out := make([]serviceResp, 0, len(items))
	for _, s := range items {
		out = append(out, toServiceResp(s))
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=30, stale-while-revalidate=30")
	return c.JSON(http.StatusOK, out)
}

// Get returns one catalog entry.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("service not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toServiceResp(s))
}

// Create adds a catalog entry. Admin only.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		IsActive:    true,
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	if err := h.Services.Create(ctx, &s); err != nil {
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusCreated, toServiceResp(s))
}

// Update rewrites a catalog entry. Admin only.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("service not found")
		}
		return err
	}
	s.Name = strings.TrimSpace(req.Name)
	s.Description = req.Description
	s.Price = req.Price
	s.Duration = req.Duration
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	if err := h.Services.Update(ctx, &s); err != nil {
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, toServiceResp(s))
}

// Delete removes a catalog entry. Admin only.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("service not found")
		}
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted"})
}
