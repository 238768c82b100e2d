package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/booking"
	"vehicle-reserve-backend/internal/domain"
	mw "vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
	"vehicle-reserve-backend/internal/utils"
)

// TimeSlotHandler serves the weekly template endpoints. The active
// list is public and cacheable; availability is always computed live.
type TimeSlotHandler struct {
	Slots     *repository.TimeSlotRepo
	Allocator *booking.Allocator
	Cache     *mw.CacheInvalidator
}

func NewTimeSlotHandler(s *repository.TimeSlotRepo, a *booking.Allocator, cache *mw.CacheInvalidator) *TimeSlotHandler {
	return &TimeSlotHandler{Slots: s, Allocator: a, Cache: cache}
}

type timeSlotReq struct {
	DayOfWeek *int    `json:"dayOfWeek"`
	StartTime *string `json:"startTime"`
	Capacity  *int    `json:"capacity"`
	IsActive  *bool   `json:"isActive"`
}

type timeSlotResp struct {
	ID        uint64    `json:"id"`
	DayOfWeek int       `json:"dayOfWeek"`
	StartTime string    `json:"startTime"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTimeSlotResp(s model.TimeSlot) timeSlotResp {
	return timeSlotResp{
		ID: s.ID, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime,
		Capacity: s.Capacity, IsActive: s.IsActive, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func slotList(items []model.TimeSlot) []timeSlotResp {
	out := make([]timeSlotResp, 0, len(items))
	for _, s := range items {
		out = append(out, toTimeSlotResp(s))
	}
	return out
}

// List returns every template, active or not. Admin only.
func (h *TimeSlotHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Slots.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slotList(items))
}

// ListActive returns active templates for the booking page. Public,
// cacheable.
func (h *TimeSlotHandler) ListActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Slots.ListActive(ctx)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=30, stale-while-revalidate=30")
	return c.JSON(http.StatusOK, slotList(items))
}

// Available reports live remaining capacity for each active template
// on the weekday of ?date=YYYY-MM-DD. Never cached: a stale count
// would let the client offer an opening that no longer exists.
func (h *TimeSlotHandler) Available(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return domain.Validation("date query parameter is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Allocator.Availability(ctx, date)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, out)
}

// Get returns one template. Admin only.
func (h *TimeSlotHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("time slot not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toTimeSlotResp(s))
}

// Create adds a template. Admin only. Capacity defaults to 1 and the
// (dayOfWeek, startTime) pair must be unique.
func (h *TimeSlotHandler) Create(c echo.Context) error {
	var req timeSlotReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if req.DayOfWeek == nil || !utils.IsValidDayOfWeek(*req.DayOfWeek) {
		return domain.Validation("dayOfWeek must be between 0 and 6")
	}
	if req.StartTime == nil || !utils.IsValidSlotTime(*req.StartTime) {
		return domain.Validation("startTime must be HH:mm")
	}
	capacity := 1
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return domain.Validation("capacity must be at least 1")
		}
		capacity = *req.Capacity
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.TimeSlot{DayOfWeek: *req.DayOfWeek, StartTime: *req.StartTime, Capacity: capacity, IsActive: active}
	if err := h.Slots.Create(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Validation("a time slot already exists for that day and time")
		}
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusCreated, toTimeSlotResp(s))
}

// Update changes a template. Admin only. Only the supplied fields
// change; the uniqueness constraint applies to the effective pair.
func (h *TimeSlotHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req timeSlotReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("time slot not found")
		}
		return err
	}
	if req.DayOfWeek != nil {
		if !utils.IsValidDayOfWeek(*req.DayOfWeek) {
			return domain.Validation("dayOfWeek must be between 0 and 6")
		}
		s.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		if !utils.IsValidSlotTime(*req.StartTime) {
			return domain.Validation("startTime must be HH:mm")
		}
		s.StartTime = *req.StartTime
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return domain.Validation("capacity must be at least 1")
		}
		s.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}

	if err := h.Slots.Update(ctx, &s); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Validation("a time slot already exists for that day and time")
		}
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, toTimeSlotResp(s))
}

// Delete removes a template. Admin only. Refused while any
// reservation, historical included, still references it; deactivate
// instead to stop new bookings.
func (h *TimeSlotHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Slots.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrHasReservations):
			return domain.Conflict("time slot has reservations; deactivate it instead")
		case errors.Is(err, sql.ErrNoRows):
			return domain.NotFound("time slot not found")
		}
		return err
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "time slot deleted"})
}
