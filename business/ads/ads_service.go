// Package ads is the selection engine: which advertisements an anonymous
// device may see at a coordinate, and how a view attempt spends an ad's
// budget. Every attempt is recorded; only attempts inside the owning store's
// geofence debit the budget.
package ads

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/domflow/tigerad/business/geo"
	"github.com/domflow/tigerad/business/ratelimit"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	"github.com/domflow/tigerad/pkg/metrics"
	"gorm.io/datatypes"
)

const (
	// MaxNearbyAds caps one lookup's result set.
	MaxNearbyAds = 50

	InteractionView = "view"
)

type AdvertisementRepository interface {
	Create(ctx context.Context, ad *domain.Advertisement) error
	FindByID(ctx context.Context, id uint64) (domain.Advertisement, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyAd, error)
	FindEligible(ctx context.Context, id uint64) (domain.EligibleAd, error)
	ConsumeView(ctx context.Context, id uint64) (bool, error)
	FindByOwner(ctx context.Context, ownerID uint64, status string, page, limit int) ([]domain.Advertisement, int64, error)
}

type InteractionRepository interface {
	SaveInteraction(ctx context.Context, interaction *domain.UserInteraction) error
	AdMetrics(ctx context.Context, advertisementID uint64, days int) ([]domain.AdMetric, error)
}

type StoreRepository interface {
	VerifyOwnership(ctx context.Context, storeID, ownerID uint64) (bool, error)
}

type CreditDebiter interface {
	Debit(ctx context.Context, storeID uint64, credits int64) (bool, error)
	Reinstate(ctx context.Context, storeID uint64, credits int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, identifier string, policy ratelimit.Policy, storeID uint64) (bool, error)
}

type Config struct {
	DefaultRadiusMeters float64
	ViewsPerCredit      int64
	EntryPolicy         ratelimit.Policy
	AdCreationPolicy    ratelimit.Policy
}

type AdService struct {
	adRepo          AdvertisementRepository
	interactionRepo InteractionRepository
	storeRepo       StoreRepository
	credits         CreditDebiter
	limiter         RateLimiter
	cfg             Config
}

func NewAdService(adRepo AdvertisementRepository, interactionRepo InteractionRepository, storeRepo StoreRepository, credits CreditDebiter, limiter RateLimiter, cfg Config) *AdService {
	return &AdService{
		adRepo:          adRepo,
		interactionRepo: interactionRepo,
		storeRepo:       storeRepo,
		credits:         credits,
		limiter:         limiter,
		cfg:             cfg,
	}
}

// ListNearby returns up to MaxNearbyAds eligible advertisements around the
// coordinate, nearest first. When a fingerprint is supplied, the device's
// rate-limit slot is consumed before the index is queried, so a denied
// device learns nothing about inventory.
func (s *AdService) ListNearby(ctx context.Context, fingerprint string, lat, lon, radiusMeters float64) ([]domain.NearbyAd, error) {
	start := time.Now()

	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	if radiusMeters <= 0 {
		radiusMeters = s.cfg.DefaultRadiusMeters
	}

	if fingerprint != "" {
		allowed, err := s.limiter.Allow(ctx, fingerprint, s.cfg.EntryPolicy, 0)
		if err != nil {
			return nil, err
		}
		if !allowed {
			metrics.RateLimitedRequests.Inc()
			return nil, domain.ErrRateLimited
		}
	}

	ads, err := s.adRepo.FindNearby(ctx, lat, lon, radiusMeters, MaxNearbyAds)
	if err != nil {
		return nil, err
	}

	metrics.NearbyAdsRequests.Inc()
	metrics.NearbyAdsLatency.Observe(time.Since(start).Seconds())

	return ads, nil
}

type ViewRequest struct {
	AdvertisementID uint64
	Fingerprint     string
	Latitude        float64
	Longitude       float64
	DeviceInfo      map[string]interface{}
}

type ViewResult struct {
	Recorded       bool    `json:"recorded"`
	ViewCounted    bool    `json:"view_counted"`
	DistanceMeters float64 `json:"distance_meters"`
	StoreName      string  `json:"store_name"`
	ViewsRemaining int64   `json:"views_remaining"`
}

// RecordView logs a view attempt against an eligible advertisement. The
// interaction row is written for every attempt; the view budget is debited
// only when the device is inside the store's geofence, and the debit itself
// decides contention on the last remaining view.
func (s *AdService) RecordView(ctx context.Context, req ViewRequest) (ViewResult, error) {
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return ViewResult{}, err
	}
	if req.Fingerprint == "" {
		return ViewResult{}, fmt.Errorf("%w: user fingerprint is required", domain.ErrInvalidInput)
	}

	ad, err := s.adRepo.FindEligible(ctx, req.AdvertisementID)
	if err != nil {
		return ViewResult{}, err
	}

	distance := geo.Distance(req.Latitude, req.Longitude, ad.StoreLatitude, ad.StoreLongitude)

	interaction := domain.UserInteraction{
		AdvertisementID:     ad.ID,
		UserFingerprint:     req.Fingerprint,
		InteractionType:     InteractionView,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		StoreDistanceMeters: distance,
		DeviceInfo:          datatypes.JSONMap(req.DeviceInfo),
		SessionID:           sessionID(req.Fingerprint, time.Now()),
	}
	if err := s.interactionRepo.SaveInteraction(ctx, &interaction); err != nil {
		return ViewResult{}, err
	}

	result := ViewResult{
		Recorded:       true,
		DistanceMeters: distance,
		StoreName:      ad.StoreName,
		ViewsRemaining: ad.ViewsRemaining,
	}

	if distance > ad.GeofenceRadiusMeters {
		metrics.ViewsTracked.WithLabelValues("false").Inc()
		return result, nil
	}

	counted, err := s.adRepo.ConsumeView(ctx, ad.ID)
	if err != nil {
		return ViewResult{}, err
	}

	result.ViewCounted = counted
	if counted {
		result.ViewsRemaining = ad.ViewsRemaining - 1
	}
	metrics.ViewsTracked.WithLabelValues(strconv.FormatBool(counted)).Inc()

	return result, nil
}

// sessionID buckets a fingerprint into hour-long anonymous sessions.
func sessionID(fingerprint string, at time.Time) string {
	sum := md5.Sum([]byte(fingerprint + at.Format("2006-01-02 15:00:00")))
	return hex.EncodeToString(sum[:])
}

type CreateAdRequest struct {
	OwnerID      uint64
	StoreID      uint64
	Title        string
	Description  string
	Images       datatypes.JSON
	CallToAction string
	LinkURL      string
	Credits      int64
	StartDate    *time.Time
	EndDate      *time.Time
}

// CreateAdvertisement debits the store's credit balance and activates an ad
// with a view budget of credits times the per-credit view rate. Creation is
// rate limited per owner per store.
func (s *AdService) CreateAdvertisement(ctx context.Context, req CreateAdRequest) (domain.Advertisement, error) {
	if req.Credits <= 0 {
		return domain.Advertisement{}, fmt.Errorf("%w: credits must be positive", domain.ErrInvalidInput)
	}
	if req.EndDate != nil && req.StartDate != nil && !req.EndDate.After(*req.StartDate) {
		return domain.Advertisement{}, fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidInput)
	}

	owns, err := s.storeRepo.VerifyOwnership(ctx, req.StoreID, req.OwnerID)
	if err != nil {
		return domain.Advertisement{}, err
	}
	if !owns {
		return domain.Advertisement{}, domain.ErrForbidden
	}

	allowed, err := s.limiter.Allow(ctx, strconv.FormatUint(req.OwnerID, 10), s.cfg.AdCreationPolicy, req.StoreID)
	if err != nil {
		return domain.Advertisement{}, err
	}
	if !allowed {
		metrics.RateLimitedRequests.Inc()
		return domain.Advertisement{}, domain.ErrRateLimited
	}

	debited, err := s.credits.Debit(ctx, req.StoreID, req.Credits)
	if err != nil {
		return domain.Advertisement{}, err
	}
	if !debited {
		return domain.Advertisement{}, domain.ErrInsufficientCredits
	}

	views := req.Credits * s.cfg.ViewsPerCredit
	ad := domain.Advertisement{
		StoreID:          req.StoreID,
		Title:            req.Title,
		Description:      req.Description,
		Images:           req.Images,
		CallToAction:     req.CallToAction,
		LinkURL:          req.LinkURL,
		CreditsPurchased: req.Credits,
		ViewsAllocated:   views,
		ViewsRemaining:   views,
		Status:           domain.AdStatusActive,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}
	if err := s.adRepo.Create(ctx, &ad); err != nil {
		// The debit already committed; hand the credits back.
		if rerr := s.credits.Reinstate(ctx, req.StoreID, req.Credits); rerr != nil {
			logger.Error("credit reinstate failed after advertisement create error", "store_id", req.StoreID, "credits", req.Credits, rerr)
		}
		return domain.Advertisement{}, err
	}

	logger.Info("advertisement created", "ad_id", ad.ID, "store_id", req.StoreID, "views_allocated", views)

	return ad, nil
}

func (s *AdService) ListByOwner(ctx context.Context, ownerID uint64, status string, page, limit int) ([]domain.Advertisement, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.adRepo.FindByOwner(ctx, ownerID, status, page, limit)
}

// Metrics returns the daily interaction rollup for an owner's advertisement.
func (s *AdService) Metrics(ctx context.Context, ownerID, adID uint64, days int) ([]domain.AdMetric, error) {
	ad, err := s.adRepo.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}

	owns, err := s.storeRepo.VerifyOwnership(ctx, ad.StoreID, ownerID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrForbidden
	}

	if days <= 0 || days > 90 {
		days = 30
	}

	return s.interactionRepo.AdMetrics(ctx, adID, days)
}
