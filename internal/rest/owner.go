package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/domflow/tigerad/business/owner"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	jsonres "github.com/domflow/tigerad/pkg/response"
)

type OwnerService interface {
	Register(ctx context.Context, req owner.RegisterRequest) (owner.AuthResult, error)
	Login(ctx context.Context, email, password, clientIP, userAgent string) (owner.AuthResult, error)
	Logout(ctx context.Context, ownerID uint64, token string) error
	Profile(ctx context.Context, ownerID uint64) (domain.StoreOwner, error)
}

type OwnerHandler struct {
	ownerService OwnerService
	validator    *validator.Validate
	timeout      time.Duration
}

func NewOwnerHandler(ownerService OwnerService) *OwnerHandler {
	return &OwnerHandler{
		ownerService: ownerService,
		validator:    validator.New(),
		timeout:      10 * time.Second,
	}
}

type RegisterOwnerRequest struct {
	BusinessName string `json:"business_name" validate:"required"`
	OwnerName    string `json:"owner_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Password     string `json:"password" validate:"required,min=8"`
}

func (h *OwnerHandler) Register(c echo.Context) error {
	var req RegisterOwnerRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.ownerService.Register(ctx, owner.RegisterRequest{
		BusinessName: req.BusinessName,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ClientIP:     c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
	})
	if err != nil {
		logger.Error("Failed to register owner", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *OwnerHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.ownerService.Login(ctx, req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *OwnerHandler) Logout(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	token, _ := c.Get("token").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.ownerService.Logout(ctx, id, token); err != nil {
		logger.Error("Failed to revoke session", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("logged out"))
}

func (h *OwnerHandler) Profile(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	account, err := h.ownerService.Profile(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(account))
}
