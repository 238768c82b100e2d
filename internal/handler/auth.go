package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/config"
	"vehicle-reserve-backend/internal/domain"
	"vehicle-reserve-backend/internal/line"
	mw "vehicle-reserve-backend/internal/middleware"
	"vehicle-reserve-backend/internal/model"
	"vehicle-reserve-backend/internal/repository"
	"vehicle-reserve-backend/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Line   line.Verifier
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    zerolog.Logger
}

func NewAuthHandler(cfg config.Config, v line.Verifier, u *repository.UserRepo, t *repository.TokenRepo, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Line: v, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	AccessToken string `json:"accessToken"`
	Phone       string `json:"phone"`
	License     string `json:"license"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64 `json:"id"`
	LineID     string `json:"lineId"`
	Name       string `json:"name"`
	PictureURL string `json:"pictureUrl"`
	Phone      string `json:"phone"`
	License    string `json:"license"`
	Role       string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID: u.ID, LineID: u.LineID, Name: u.Name, PictureURL: u.PictureURL,
		Phone: u.Phone, License: u.License, Role: u.Role,
	}
}

// Login verifies a LINE access token and signs the caller in,
// creating the account on first login. A first login without a phone
// number is answered with the isNewUser payload so the client can ask
// for one and retry.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return domain.Authentication("access token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	profile, err := h.Line.VerifyAndFetchProfile(ctx, req.AccessToken)
	if err != nil {
		return err
	}

	u, err := h.Users.GetByLineID(ctx, profile.LineID)
	switch {
	case err == nil:
		// existing account
	case errors.Is(err, sql.ErrNoRows):
		u, err = h.register(ctx, profile, req.Phone, req.License)
		if err != nil {
			return err
		}
	default:
		return err
	}

	return h.issueTokens(c, ctx, u, http.StatusOK)
}

// register creates the account for a first-time LINE login.
func (h *AuthHandler) register(ctx context.Context, profile domain.LineProfile, phone, license string) (model.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return model.User{}, &domain.NewUserError{Profile: profile}
	}
	if !utils.IsValidPhone(phone) {
		return model.User{}, domain.Validation("phone must be 09 followed by 8 digits")
	}
	license = utils.NormalizeLicense(license)
	if license != "" && !utils.IsValidLicense(license) {
		return model.User{}, domain.Validation("invalid license plate format")
	}

	u := model.User{
		LineID:     profile.LineID,
		Name:       profile.DisplayName,
		PictureURL: profile.PictureURL,
		Phone:      phone,
		License:    license,
		Role:       model.RoleCustomer,
	}
	err := h.Users.Create(ctx, &u)
	if errors.Is(err, repository.ErrDuplicate) {
		// Two first logins raced; the other one won. Use its row.
		return h.Users.GetByLineID(ctx, profile.LineID)
	}
	if err != nil {
		return model.User{}, err
	}
	h.Log.Info().Uint64("user_id", u.ID).Msg("user registered")
	return u, nil
}

func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u model.User, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return err
	}
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw goes back to the client
	})
}

// Refresh rotates a refresh token into a new token pair. The old
// token is revoked so it cannot be replayed.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if req.RefreshToken == "" {
		return domain.Authentication("refresh token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Authentication("invalid refresh token")
		}
		return err
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Authentication("user no longer exists")
		}
		return err
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return err
	}
	return h.issueTokens(c, ctx, u, http.StatusOK)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid body")
	}
	if req.RefreshToken == "" {
		return domain.Validation("refresh token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, mw.CallerID(c))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
