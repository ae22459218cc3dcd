package handler

import (
	"tx-resource-manager/internal/adapter/http/middleware"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/internal/manager"
	"tx-resource-manager/internal/pool"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	APIKey         string // empty disables the token endpoint
	TokenSvc       ports.TokenService
	Pool           *pool.Pool
	Manager        *manager.TransactionManager
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	if deps.APIKey != "" {
		authHandler := NewAuthHandler(deps.APIKey, deps.TokenSvc)
		v1.POST("/auth/token", authHandler.Token)
	}

	// --- Admin routes (bearer token) ---
	adminHandler := NewAdminHandler(deps.Pool, deps.Manager)
	admin := v1.Group("")
	admin.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	{
		admin.GET("/pool/stats", adminHandler.GetPoolStats)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.GET("/transactions/:id", adminHandler.GetTransaction)
	}

	return r
}
