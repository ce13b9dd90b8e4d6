package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/blood-donation-match/internal/config"
	"github.com/iliyamo/blood-donation-match/internal/handler"
	"github.com/iliyamo/blood-donation-match/internal/middleware"
	"github.com/iliyamo/blood-donation-match/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account routes.  Register and login are
// public; the profile endpoints require a Bearer access token signed
// with the provided secret.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	// Profile endpoints live under /v1 behind JWT authentication.  Any
	// of the known roles may access its own profile.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleDonor, model.RoleRecipient, model.RoleCaregiver, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.DELETE("/me", a.DeleteMe)
}

// RegisterDonation registers the blood donation matching endpoints.
// Every route requires the X-User-Email identity header; resolving the
// email to a live user happens per call inside the matching service.
// Single-request fetches may be served from the Redis response cache,
// keyed per URL and per caller; a caller deleted mid-TTL can replay
// only its own earlier 200 until the entry expires.  The request
// listing is deliberately left uncached because serving it also
// backfills missing update timestamps.
func RegisterDonation(e *echo.Echo, d *handler.DonationHandler, rdb *redis.Client, cacheCfg config.CacheConfig) {
	g := e.Group("/v1", middleware.RequireIdentity())

	g.POST("/requests", d.CreateRequest)
	g.GET("/requests", d.ListRequests)
	g.GET("/requests/:id", d.GetRequest, middleware.NewRedisCache(cacheCfg, rdb))
	g.POST("/responses", d.CreateResponse)
	g.GET("/responses", d.ListResponses)
}
