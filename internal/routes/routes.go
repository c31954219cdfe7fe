package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deeptech/internal/handlers"
	"deeptech/internal/middleware"
	"deeptech/internal/models"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	jwtKey []byte,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/createDTuser", authHandler.CreateDTUser)
		auth.GET("/verifyDTusermail/:id", authHandler.VerifyEmail)
		auth.POST("/setupPassword", authHandler.SetupPassword)
		auth.POST("/dtUserLogin", authHandler.Login)
		auth.POST("/resendVerificationEmail", authHandler.ResendVerification)
		auth.POST("/requestPasswordReset", authHandler.RequestPasswordReset)
		auth.POST("/confirmPasswordReset", authHandler.ConfirmPasswordReset)
	}
	r.POST("/admin/create", adminHandler.Create)
	r.POST("/admin/verify-otp", adminHandler.VerifyOTP)
	r.POST("/admin/login", adminHandler.Login)

	// ---- protected (JWT)
	r.Use(middleware.AuthMiddleware(jwtKey))

	r.PATCH("/auth/dtUserResetPassword", authHandler.ResetPassword)
	r.POST("/auth/submitAnnotatorApplication", authHandler.SubmitAnnotatorApplication)

	admin := r.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/accounts", adminHandler.ListAccounts)
		admin.GET("/accounts/:id", adminHandler.GetAccount)
		admin.PATCH("/accounts/:id/annotator-status", adminHandler.UpdateAnnotatorStatus)
		admin.PATCH("/accounts/:id/micro-tasker-status", adminHandler.UpdateMicroTaskerStatus)
	}

	return r
}
