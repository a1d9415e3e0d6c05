package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/domflow/tigerad/business/credits"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	jsonres "github.com/domflow/tigerad/pkg/response"
)

type CreditService interface {
	Purchase(ctx context.Context, ownerID, storeID, packageID uint64, paymentMethod, paymentToken string) (credits.PurchaseResult, error)
	Refund(ctx context.Context, ownerID, storeID uint64, creditCount int64, reason string) (credits.RefundResult, error)
	Balance(ctx context.Context, ownerID, storeID uint64) (domain.CreditBalance, error)
	History(ctx context.Context, ownerID, storeID uint64, limit, offset int) ([]domain.CreditTransaction, error)
}

type CreditHandler struct {
	creditService CreditService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewCreditHandler(creditService CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		validator:     validator.New(),
		timeout:       15 * time.Second,
	}
}

type PurchaseCreditsRequest struct {
	PackageID     uint64 `json:"package_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card bank_transfer wallet"`
	PaymentToken  string `json:"payment_token" validate:"required"`
}

// PurchaseCredits is POST /stores/:id/credits/purchase.
func (h *CreditHandler) PurchaseCredits(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	var req PurchaseCreditsRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.creditService.Purchase(ctx, id, storeID, req.PackageID, req.PaymentMethod, req.PaymentToken)
	if err != nil {
		logger.Error("Failed to purchase credits", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}

type RefundCreditsRequest struct {
	Credits int64  `json:"credits" validate:"required,gt=0"`
	Reason  string `json:"reason"`
}

// RefundCredits is POST /stores/:id/credits/refund.
func (h *CreditHandler) RefundCredits(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	var req RefundCreditsRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.creditService.Refund(ctx, id, storeID, req.Credits, req.Reason)
	if err != nil {
		logger.Error("Failed to refund credits", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// GetBalance is GET /stores/:id/credits.
func (h *CreditHandler) GetBalance(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	balance, err := h.creditService.Balance(ctx, id, storeID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(balance))
}

// GetHistory is GET /stores/:id/credits/history?limit=&offset=
func (h *CreditHandler) GetHistory(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	history, err := h.creditService.History(ctx, id, storeID, limit, offset)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(history))
}
