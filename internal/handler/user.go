package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/domain"
	mw "vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
	"vehicle-reserve-backend/internal/utils"
)

// UserHandler serves the user directory endpoints.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: u}
}

type createUserReq struct {
	LineID     string `json:"lineId"`
	Name       string `json:"name"`
	PictureURL string `json:"pictureUrl"`
	Phone      string `json:"phone"`
	License    string `json:"license"`
	Role       string `json:"role"`
}

// updateUserReq carries the self-service profile fields. Role and
// line id changes are an admin concern and have no field here.
type updateUserReq struct {
	Name       *string `json:"name"`
	PictureURL *string `json:"pictureUrl"`
	Phone      *string `json:"phone"`
	License    *string `json:"license"`
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Validation("id must be a positive integer")
	}
	return id, nil
}

// GetByLineID looks a user up by LINE subject id.
func (h *UserHandler) GetByLineID(c echo.Context) error {
	lineID := strings.TrimSpace(c.Param("lineId"))
	if lineID == "" {
		return domain.Validation("line id must not be empty")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByLineID(ctx, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// GetByID looks a user up by internal id. Non-admins can only read
// their own record.
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if mw.CallerRole(c) != model.RoleAdmin && mw.CallerID(c) != id {
		return domain.Authorization("you can only view your own profile")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Create adds a user directly, bypassing the LINE login flow. Admin
// only; intended for seeding shop staff accounts.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	req.LineID = strings.TrimSpace(req.LineID)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.LineID == "" {
		return domain.Validation("line id is required")
	}
	if req.Name == "" {
		return domain.Validation("name is required")
	}
	if !utils.IsValidPhone(req.Phone) {
		return domain.Validation("phone must be 09 followed by 8 digits")
	}
	license := utils.NormalizeLicense(req.License)
	if license != "" && !utils.IsValidLicense(license) {
		return domain.Validation("invalid license plate format")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleCustomer
	}
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return domain.Validation("invalid role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{
		LineID:     req.LineID,
		Name:       req.Name,
		PictureURL: req.PictureURL,
		Phone:      req.Phone,
		License:    license,
		Role:       role,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Validation("line id already in use")
		}
		return err
	}
	return c.JSON(http.StatusCreated, toUserPart(u))
}

// Update lets a user change their own profile. Non-admins touching
// another user's record get 403.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if mw.CallerRole(c) != model.RoleAdmin && mw.CallerID(c) != id {
		return domain.Authorization("you can only update your own profile")
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if req.Name == nil && req.PictureURL == nil && req.Phone == nil && req.License == nil {
		return domain.Validation("no fields to update")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Validation("name must not be empty")
		}
		u.Name = name
	}
	if req.PictureURL != nil {
		u.PictureURL = *req.PictureURL
	}
	if req.Phone != nil {
		if !utils.IsValidPhone(*req.Phone) {
			return domain.Validation("phone must be 09 followed by 8 digits")
		}
		u.Phone = *req.Phone
	}
	if req.License != nil {
		license := utils.NormalizeLicense(*req.License)
		if license != "" && !utils.IsValidLicense(license) {
			return domain.Validation("invalid license plate format")
		}
		u.License = license
	}

	if err := h.Users.Update(ctx, &u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Delete removes a user. Admin only.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
