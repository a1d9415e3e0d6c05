package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the public nearby-ads endpoint
	NearbyAdsLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geofence_nearby_ads_latency_seconds",
		Help:    "Latency of nearby-ads lookups",
		Buckets: prometheus.DefBuckets,
	})

	NearbyAdsRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geofence_nearby_ads_requests_total",
		Help: "Total nearby-ads lookups served",
	})

	RateLimitedRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geofence_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	ViewsTracked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geofence_ad_views_tracked_total",
		Help: "Tracked ad view attempts, by whether the view budget was debited",
	}, []string{"debited"})

	CreditsDebited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geofence_credits_debited_total",
		Help: "Credits debited from store balances",
	})
)

func Init() {
	prometheus.MustRegister(
		NearbyAdsLatency,
		NearbyAdsRequests,
		RateLimitedRequests,
		ViewsTracked,
		CreditsDebited,
	)
}
