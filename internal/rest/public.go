package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/domflow/tigerad/business/ads"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	jsonres "github.com/domflow/tigerad/pkg/response"
)

type AdReader interface {
	ListNearby(ctx context.Context, fingerprint string, lat, lon, radiusMeters float64) ([]domain.NearbyAd, error)
	RecordView(ctx context.Context, req ads.ViewRequest) (ads.ViewResult, error)
}

type EventRecorder interface {
	RecordEvent(ctx context.Context, storeID uint64, fingerprint, eventType string, lat, lon float64) (domain.GeofenceEvent, error)
}

type StoreFinder interface {
	Nearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.NearbyStore, error)
}

type PackageLister interface {
	Packages(ctx context.Context) ([]domain.CreditPackage, error)
}

// PublicHandler serves the unauthenticated device-facing endpoints.
type PublicHandler struct {
	adService    AdReader
	eventService EventRecorder
	storeService StoreFinder
	packages     PackageLister
	validator    *validator.Validate
	timeout      time.Duration
}

func NewPublicHandler(adService AdReader, eventService EventRecorder, storeService StoreFinder, packages PackageLister) *PublicHandler {
	return &PublicHandler{
		adService:    adService,
		eventService: eventService,
		storeService: storeService,
		packages:     packages,
		validator:    validator.New(),
		timeout:      10 * time.Second,
	}
}

func parseCoordinates(c echo.Context) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(c.QueryParam("latitude"), 64)
	if err != nil {
		return 0, 0, err
	}

	lon, err = strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}

// GetNearbyAds is GET /nearby-ads?latitude=&longitude=&radius=&user_fingerprint=
func (h *PublicHandler) GetNearbyAds(c echo.Context) error {
	lat, lon, err := parseCoordinates(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "latitude and longitude are required numbers", nil))
	}

	radius := 0.0
	if raw := c.QueryParam("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "radius must be a number", nil))
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.adService.ListNearby(ctx, c.QueryParam("user_fingerprint"), lat, lon, radius)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"advertisements": result,
		"count":          len(result),
	}))
}

type TrackViewRequest struct {
	AdvertisementID uint64                 `json:"advertisement_id" validate:"required"`
	UserFingerprint string                 `json:"user_fingerprint" validate:"required"`
	Latitude        float64                `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64                `json:"longitude" validate:"min=-180,max=180"`
	DeviceInfo      map[string]interface{} `json:"device_info"`
}

// TrackView is POST /track-view.
func (h *PublicHandler) TrackView(c echo.Context) error {
	var req TrackViewRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.adService.RecordView(ctx, ads.ViewRequest{
		AdvertisementID: req.AdvertisementID,
		Fingerprint:     req.UserFingerprint,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		DeviceInfo:      req.DeviceInfo,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

type GeofenceEventRequest struct {
	StoreID         uint64  `json:"store_id" validate:"required"`
	UserFingerprint string  `json:"user_fingerprint" validate:"required"`
	EventType       string  `json:"event_type" validate:"required,oneof=enter exit dwell"`
	Latitude        float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64 `json:"longitude" validate:"min=-180,max=180"`
}

// RecordGeofenceEvent is POST /geofence-events.
func (h *PublicHandler) RecordGeofenceEvent(c echo.Context) error {
	var req GeofenceEventRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.eventService.RecordEvent(ctx, req.StoreID, req.UserFingerprint, req.EventType, req.Latitude, req.Longitude)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(event))
}

// GetNearbyStores is GET /nearby-stores?latitude=&longitude=&radius=
func (h *PublicHandler) GetNearbyStores(c echo.Context) error {
	lat, lon, err := parseCoordinates(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "latitude and longitude are required numbers", nil))
	}

	radius := 0.0
	if raw := c.QueryParam("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", "radius must be a number", nil))
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stores, err := h.storeService.Nearby(ctx, lat, lon, radius)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stores))
}

// GetCreditPackages is GET /credit-packages.
func (h *PublicHandler) GetCreditPackages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	pkgs, err := h.packages.Packages(ctx)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(pkgs))
}
