package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/domflow/tigerad/business/stores"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	jsonres "github.com/domflow/tigerad/pkg/response"
)

type StoreService interface {
	Create(ctx context.Context, req stores.CreateStoreRequest) (domain.Store, error)
	Update(ctx context.Context, ownerID, storeID uint64, req stores.UpdateStoreRequest) (domain.StoreWithBalance, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]domain.StoreWithBalance, error)
	Get(ctx context.Context, ownerID, storeID uint64) (domain.StoreWithBalance, error)
}

type StoreStatsService interface {
	StoreStats(ctx context.Context, ownerID, storeID uint64, days int) ([]domain.GeofenceStat, error)
}

type StoreHandler struct {
	storeService StoreService
	statsService StoreStatsService
	validator    *validator.Validate
	timeout      time.Duration
}

func NewStoreHandler(storeService StoreService, statsService StoreStatsService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		statsService: statsService,
		validator:    validator.New(),
		timeout:      10 * time.Second,
	}
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

type CreateStoreRequest struct {
	StoreName            string  `json:"store_name" validate:"required"`
	Address              string  `json:"address"`
	Latitude             float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude            float64 `json:"longitude" validate:"min=-180,max=180"`
	GeofenceRadiusMeters float64 `json:"geofence_radius_meters" validate:"gte=0"`
	Phone                string  `json:"phone"`
	Website              string  `json:"website"`
	Category             string  `json:"category"`
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	var req CreateStoreRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	store, err := h.storeService.Create(ctx, stores.CreateStoreRequest{
		OwnerID:              id,
		StoreName:            req.StoreName,
		Address:              req.Address,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		GeofenceRadiusMeters: req.GeofenceRadiusMeters,
		Phone:                req.Phone,
		Website:              req.Website,
		Category:             req.Category,
	})
	if err != nil {
		logger.Error("Failed to create store", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(store))
}

type UpdateStoreRequest struct {
	StoreName            *string  `json:"store_name"`
	Address              *string  `json:"address"`
	Latitude             *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude            *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	GeofenceRadiusMeters *float64 `json:"geofence_radius_meters" validate:"omitempty,gt=0"`
	Phone                *string  `json:"phone"`
	Website              *string  `json:"website"`
	Category             *string  `json:"category"`
	IsActive             *bool    `json:"is_active"`
}

func (h *StoreHandler) UpdateStore(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	var req UpdateStoreRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	store, err := h.storeService.Update(ctx, id, storeID, stores.UpdateStoreRequest{
		StoreName:            req.StoreName,
		Address:              req.Address,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		GeofenceRadiusMeters: req.GeofenceRadiusMeters,
		Phone:                req.Phone,
		Website:              req.Website,
		Category:             req.Category,
		IsActive:             req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(store))
}

func (h *StoreHandler) GetStores(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.storeService.ListByOwner(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *StoreHandler) GetStoreByID(c echo.Context) error {
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

	store, err := h.storeService.Get(ctx, id, storeID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(store))
}

// GetStoreStats is GET /stores/:id/stats?days=30
func (h *StoreHandler) GetStoreStats(c echo.Context) error {
	id, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Not authenticated", nil))
	}

	storeID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "Invalid store id", nil))
	}

	days, _ := strconv.Atoi(c.QueryParam("days"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.statsService.StoreStats(ctx, id, storeID, days)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}
