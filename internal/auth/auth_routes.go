package auth

import (
	"go-portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes mounts POST /auth and POST /auth/signup. rdb may be nil, in
// which case signup runs without Idempotency-Key replay.
func RegisterRoutes(r gin.IRouter, handler *Handler, rdb *redis.Client) {
	auth := r.Group("/auth")
	{
		auth.POST("", middleware.RateLimitByIP(5, 10), handler.Login)

		signup := []gin.HandlerFunc{middleware.RateLimitByIP(1, 5)}
		if rdb != nil {
			signup = append(signup, middleware.Idempotency(rdb))
		}
		auth.POST("/signup", append(signup, handler.Signup)...)
	}
}
