package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/domflow/tigerad/business/ads"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	jsonres "github.com/domflow/tigerad/pkg/response"
)

type AdManager interface {
	CreateAdvertisement(ctx context.Context, req ads.CreateAdRequest) (domain.Advertisement, error)
	ListByOwner(ctx context.Context, ownerID uint64, status string, page, limit int) ([]domain.Advertisement, int64, error)
	Metrics(ctx context.Context, ownerID, adID uint64, days int) ([]domain.AdMetric, error)
}

type AdHandler struct {
	adService AdManager
	validator *validator.Validate
	timeout   time.Duration
}

func NewAdHandler(adService AdManager) *AdHandler {
	return &AdHandler{
		adService: adService,
		validator: validator.New(),
		timeout:   10 * time.Second,
	}
}

type CreateAdvertisementRequest struct {
	StoreID      uint64         `json:"store_id" validate:"required"`
	Title        string         `json:"title" validate:"required"`
	Description  string         `json:"description"`
	Images       datatypes.JSON `json:"images"`
	CallToAction string         `json:"call_to_action"`
	LinkURL      string         `json:"link_url" validate:"omitempty,url"`
	Credits      int64          `json:"credits" validate:"required,gt=0"`
	StartDate    *time.Time     `json:"start_date"`
	EndDate      *time.Time     `json:"end_date"`
}

func (h *AdHandler) CreateAdvertisement(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	var req CreateAdvertisementRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	ad, err := h.adService.CreateAdvertisement(ctx, ads.CreateAdRequest{
		OwnerID:      id,
		StoreID:      req.StoreID,
		Title:        req.Title,
		Description:  req.Description,
		Images:       req.Images,
		CallToAction: req.CallToAction,
		LinkURL:      req.LinkURL,
		Credits:      req.Credits,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		logger.Error("Failed to create advertisement", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(ad))
}

// GetAdvertisements is GET /advertisements?status=&page=&limit=
func (h *AdHandler) GetAdvertisements(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, total, err := h.adService.ListByOwner(ctx, id, c.QueryParam("status"), page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"advertisements": result,
		"total":          total,
	}))
}

// GetAdMetrics is GET /advertisements/:id/metrics?days=30
func (h *AdHandler) GetAdMetrics(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	adID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid advertisement id", nil))
	}

	days, _ := strconv.Atoi(c.QueryParam("days"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.adService.Metrics(ctx, id, adID, days)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}
