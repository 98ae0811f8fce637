package http

import (
	"github.com/gin-gonic/gin"

	"github.com/ExpertVagabond/purplesquirrel-media-app/service"
)

// SetupRouter wires the mock authority's routes onto a Gin engine.
func SetupRouter(authService *service.AuthService, videoService *service.VideoService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	handlers := NewHandlers(authService, videoService)
	requireAuth := AuthMiddleware(authService)

	router.GET("/health", handlers.Health)

	// Stage target lives outside the API prefix, like a real bucket would.
	router.PUT("/mock-s3/:id", handlers.StageUpload)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/nonce", handlers.Nonce)
			auth.POST("/verify", handlers.Verify)
			auth.GET("/me", requireAuth, handlers.Me)
			auth.POST("/logout", requireAuth, handlers.Logout)
		}

		uploads := v1.Group("/uploads")
		{
			uploads.POST("", requireAuth, handlers.CreateUpload)
			uploads.POST("/complete", requireAuth, handlers.CompleteUpload)
			uploads.GET("/:id/status", handlers.UploadStatus)
		}

		videos := v1.Group("/videos")
		{
			videos.GET("", handlers.ListVideos)
			videos.GET("/:id", handlers.GetVideo)
			videos.GET("/:id/tips", handlers.ListTips)
		}

		v1.GET("/users/:id", handlers.GetUser)
		v1.POST("/tips", requireAuth, handlers.RecordTip)
	}

	return router
}
