package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/auth"
	"portfolio/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
// 公开组对外提供作品集内容的只读访问，后台组整体挂 AuthMiddleware。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	generator Generator,
	verifier *auth.Verifier,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	clamdAddr string,
	allowedOrigins []string,
) {
	contentHandler := NewContentHandler(db)
	resumeHandler := NewResumeHandler(db, generator, storageClient)
	assetHandler := NewAssetHandler(storageClient, logger, clamdAddr)
	wsHandler := NewWsHandler(redisClient, verifier, logger, allowedOrigins)
	authMiddleware := middleware.AuthMiddleware(verifier)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		publicGroup := v1.Group("/portfolio")
		{
			publicGroup.GET("/profile", contentHandler.GetProfile)
			publicGroup.GET("/experience", contentHandler.ListExperience)
			publicGroup.GET("/projects", contentHandler.ListProjects)
			publicGroup.GET("/skills", contentHandler.ListSkills)
			publicGroup.GET("/education", contentHandler.ListEducation)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware)
		{
			adminGroup.PUT("/profile", contentHandler.UpsertProfile)

			adminGroup.POST("/experience", contentHandler.CreateExperience)
			adminGroup.PUT("/experience/:id", contentHandler.UpdateExperience)
			adminGroup.DELETE("/experience/:id", contentHandler.DeleteExperience)

			adminGroup.POST("/projects", contentHandler.CreateProject)
			adminGroup.PUT("/projects/:id", contentHandler.UpdateProject)
			adminGroup.DELETE("/projects/:id", contentHandler.DeleteProject)

			adminGroup.POST("/skills", contentHandler.CreateSkillGroup)
			adminGroup.PUT("/skills/:id", contentHandler.UpdateSkillGroup)
			adminGroup.DELETE("/skills/:id", contentHandler.DeleteSkillGroup)

			adminGroup.POST("/education", contentHandler.CreateEducation)
			adminGroup.PUT("/education/:id", contentHandler.UpdateEducation)
			adminGroup.DELETE("/education/:id", contentHandler.DeleteEducation)

			adminGroup.GET("/templates", contentHandler.ListTemplates)

			adminGroup.GET("/resume-configs", resumeHandler.ListConfigs)
			adminGroup.POST("/resume-configs", resumeHandler.CreateConfig)
			adminGroup.GET("/resume-configs/:id", resumeHandler.GetConfig)
			adminGroup.PUT("/resume-configs/:id", resumeHandler.UpdateConfig)
			adminGroup.DELETE("/resume-configs/:id", resumeHandler.DeleteConfig)
			adminGroup.POST("/resume-configs/:id/generate", resumeHandler.GenerateVersion)
			adminGroup.GET("/resume-configs/:id/versions", resumeHandler.ListVersions)
			adminGroup.GET("/resume-versions/:versionID/download-link", resumeHandler.GetVersionDownloadLink)

			adminGroup.POST("/assets/upload", assetHandler.UploadAsset)
			adminGroup.GET("/assets", assetHandler.ListAssets)
			adminGroup.GET("/assets/view", assetHandler.GetAssetURL)
		}
	}
}
