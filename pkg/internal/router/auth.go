package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/cropvault/pkg/internal/handle"
)

// RegisterAuthRoutes 注册一次性验证码路由.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	otpRoutes := g.Group("/auth/otp")
	{
		otpRoutes.POST("/request", handle.RequestOTP)
		otpRoutes.POST("/verify", handle.VerifyOTP)
	}
}
