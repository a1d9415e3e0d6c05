package router

import (
	"github.com/domflow/tigerad/internal/rest"

	"github.com/labstack/echo/v4"
)

// SetupPublicRoutes wires the unauthenticated device-facing endpoints.
func SetupPublicRoutes(api *echo.Group, handler *rest.PublicHandler) {
	api.GET("/nearby-ads", handler.GetNearbyAds)
	api.POST("/track-view", handler.TrackView)
	api.POST("/geofence-events", handler.RecordGeofenceEvent)
	api.GET("/nearby-stores", handler.GetNearbyStores)
	api.GET("/credit-packages", handler.GetCreditPackages)
}

func SetupOwnerRoutes(api *echo.Group, handler *rest.OwnerHandler, authRequired echo.MiddlewareFunc) {
	owners := api.Group("/owners")

	owners.POST("/register", handler.Register)
	owners.POST("/login", handler.Login)

	owners.POST("/logout", handler.Logout, authRequired)
	owners.GET("/me", handler.Profile, authRequired)
}

func SetupStoreRoutes(api *echo.Group, storeHandler *rest.StoreHandler, creditHandler *rest.CreditHandler, authRequired echo.MiddlewareFunc) {
	stores := api.Group("/stores", authRequired)

	stores.POST("", storeHandler.CreateStore)
	stores.GET("", storeHandler.GetStores)
	stores.GET("/:id", storeHandler.GetStoreByID)
	stores.PUT("/:id", storeHandler.UpdateStore)
	stores.GET("/:id/stats", storeHandler.GetStoreStats)

	stores.POST("/:id/credits/purchase", creditHandler.PurchaseCredits)
	stores.POST("/:id/credits/refund", creditHandler.RefundCredits)
	stores.GET("/:id/credits", creditHandler.GetBalance)
	stores.GET("/:id/credits/history", creditHandler.GetHistory)
}

func SetupAdvertisementRoutes(api *echo.Group, handler *rest.AdHandler, authRequired echo.MiddlewareFunc) {
	advertisements := api.Group("/advertisements", authRequired)

	advertisements.POST("", handler.CreateAdvertisement)
	advertisements.GET("", handler.GetAdvertisements)
	advertisements.GET("/:id/metrics", handler.GetAdMetrics)
}
