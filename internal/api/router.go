// Package api assembles the Gin engine: public form routes, the
// authenticated admin API and the operational endpoints.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/spectrumleads/formgate/internal/auth"
	"github.com/spectrumleads/formgate/internal/handlers"
	"github.com/spectrumleads/formgate/internal/middleware"
	"github.com/spectrumleads/formgate/internal/nonce"
	"github.com/spectrumleads/formgate/internal/renderer"
	"github.com/spectrumleads/formgate/internal/settings"
	"github.com/spectrumleads/formgate/internal/spectrum"
	"github.com/spectrumleads/formgate/web"
)

// Deps carries the services the router wires into handlers.
type Deps struct {
	Client   spectrum.Client
	Settings settings.Repository
	Nonces   *nonce.Service
	Renderer *renderer.Renderer
	JWT      *iauth.JWTService

	VendorBaseURL     string
	AdminUsername     string
	AdminPasswordHash string

	RateStore       middleware.RateStore
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("vendor client must be provided")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings repository must be provided")
	}
	if deps.Nonces == nil {
		return nil, fmt.Errorf("nonce service must be provided")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(deps.RateStore, deps.RateLimit, deps.RateLimitWindow))

	formHandler := handlers.NewFormHandler(deps.Client, deps.Settings, deps.Nonces, deps.Renderer, deps.VendorBaseURL)

	// Public form routes
	r.GET("/form", formHandler.Render)
	r.POST("/submit", formHandler.Submit)

	// Browser assets
	assets, err := web.FS()
	if err != nil {
		return nil, err
	}
	r.StaticFS("/assets", http.FS(assets))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	authHandler := handlers.NewAuthHandler(deps.JWT, deps.AdminUsername, deps.AdminPasswordHash)
	r.POST("/api/auth/login", authHandler.Login)

	// Protected admin routes
	adminHandler := handlers.NewAdminHandler(deps.Client, deps.Settings)

	api := r.Group("/api")
	api.Use(middleware.SecurityHeaders())
	api.Use(middleware.Auth(deps.JWT))
	{
		api.GET("/credentials", adminHandler.GetCredentials)
		api.POST("/credentials", adminHandler.SaveCredentials)
		api.GET("/forms", adminHandler.ListForms)
		api.GET("/forms/:form_id/fields", adminHandler.FormFields)
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
