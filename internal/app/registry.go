package app

import (
	"context"
	"net/http"
	"time"

	"go-portal/internal/auth"
	"go-portal/internal/middleware"
	"go-portal/internal/shared/apperror"
	"go-portal/internal/shared/response"
	"go-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Dependencies struct {
	Store     store.Store
	Redis     *redis.Client
	Publisher auth.EventPublisher
	Hasher    auth.Hasher
	Logger    *zap.Logger
}

func RegisterModules(router *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.L()
	}

	router.Use(middleware.RequestID(), middleware.ContextLogger(logger))

	// --- Repositories ---
	authRepo := auth.NewRepository(deps.Store)

	// --- Services ---
	authService := auth.NewService(authRepo, deps.Hasher, deps.Publisher, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)

	// --- Routes Registration ---
	router.GET("/healthz", healthz(deps.Store))
	auth.RegisterRoutes(router, authHandler, deps.Redis)
}

func healthz(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			zap.L().Named("app.healthz").Warn("store ping failed", zap.Error(err))
			response.AppError(c, apperror.ErrServiceUnavailable.WithCause(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
