package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/booking"
	"vehicle-reserve-backend/internal/domain"
	mw "vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
)

// ReservationHandler serves the booking endpoints. It is a thin HTTP
// layer over the allocator; ownership and capacity rules live there.
type ReservationHandler struct {
	Allocator *booking.Allocator
}

func NewReservationHandler(a *booking.Allocator) *ReservationHandler {
	return &ReservationHandler{Allocator: a}
}

func isAdmin(c echo.Context) bool { return mw.CallerRole(c) == model.RoleAdmin }

// render picks the response shape by role. Customers never see the
// admin memo or owner details because the customer type has no such
// fields.
func render(c echo.Context, status int, d model.ReservationDetail) error {
	if isAdmin(c) {
		return c.JSON(status, booking.NewAdminView(d))
	}
	return c.JSON(status, booking.NewCustomerView(d))
}

// Create books a reservation for the caller.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req booking.CreateInput
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	d, err := h.Allocator.Create(ctx, mw.CallerID(c), req)
	if err != nil {
		return err
	}
	return render(c, http.StatusCreated, d)
}

// List returns the caller's reservations, or all of them for admins.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if isAdmin(c) {
		items, err := h.Allocator.ListAll(ctx)
		if err != nil {
			return err
		}
		out := make([]booking.AdminView, 0, len(items))
		for _, d := range items {
			out = append(out, booking.NewAdminView(d))
		}
		return c.JSON(http.StatusOK, out)
	}

	items, err := h.Allocator.ListForCustomer(ctx, mw.CallerID(c))
	if err != nil {
		return err
	}
	out := make([]booking.CustomerView, 0, len(items))
	for _, d := range items {
		out = append(out, booking.NewCustomerView(d))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one reservation. Customers can only read their own.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Allocator.Get(ctx, id, mw.CallerID(c), isAdmin(c))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, d)
}

// Update edits a reservation. The request is decoded into the
// role-specific input type, so customer requests physically cannot
// carry status or admin memo changes.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var d model.ReservationDetail
	if isAdmin(c) {
		var req booking.AdminUpdateInput
		if err := c.Bind(&req); err != nil {
			return domain.Validation("invalid body")
		}
		d, err = h.Allocator.UpdateAsAdmin(ctx, id, req)
	} else {
		var req booking.CustomerUpdateInput
		if err := c.Bind(&req); err != nil {
			return domain.Validation("invalid body")
		}
		d, err = h.Allocator.UpdateAsCustomer(ctx, id, mw.CallerID(c), req)
	}
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, d)
}

// Cancel marks a reservation CANCELLED, freeing its slot capacity.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Allocator.Cancel(ctx, id, mw.CallerID(c), isAdmin(c))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, d)
}

// Purge permanently deletes a reservation. Admin only; Cancel is the
// normal removal path.
func (h *ReservationHandler) Purge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Allocator.Purge(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation deleted"})
}
