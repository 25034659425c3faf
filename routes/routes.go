package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/config"
	"github.com/gather-app/gather-backend/database"
	"github.com/gather-app/gather-backend/internal/announcement"
	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/auth"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/member"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/profile"
	"github.com/gather-app/gather-backend/internal/reports"
	"github.com/gather-app/gather-backend/middleware"
	"github.com/gather-app/gather-backend/utils"

	_ "github.com/gather-app/gather-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup wires every module (repository -> service -> handler) onto r.
// notificationSvc is shared with the Kafka consumer started in main.
func Setup(r *gin.Engine, cfg *config.Config, notificationSvc *notification.Service) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(cfg.RateLimit, utils.RedisClient))
	api.Use(middleware.ClientIP())

	// ========== Audit Log ==========
	auditRepo := auditlog.NewRepository(database.DB)
	auditSvc := auditlog.NewService(auditRepo)

	// ========== Auth + Profiles ==========
	authSvc := auth.NewService(cfg)
	profileRepo := profile.NewRepository(database.DB)
	profileSvc := profile.NewService(profileRepo, auditSvc)
	profileHandler := profile.NewHandler(profileSvc)

	// ========== Events ==========
	eventRepo := event.NewRepository(database.DB)
	previewCache := event.NewPreviewCache(utils.RedisClient, cfg.InvitePreviewTTL)
	eventSvc := event.NewService(eventRepo, auditSvc, previewCache, cfg.FrontendURL)
	eventHandler := event.NewHandler(eventSvc)

	// 🔔 Domain events go to Kafka when configured, otherwise straight to the notifier
	publisher := notification.NewPublisher(utils.KafkaWriter, notificationSvc)
	notificationHandler := notification.NewHandler(notificationSvc, cfg.CORSOrigins)

	// ========== Members ==========
	memberRepo := member.NewRepository(database.DB)
	memberSvc := member.NewService(memberRepo, eventSvc, auditSvc, publisher, cfg.EnforceCapacity)
	memberHandler := member.NewHandler(memberSvc)

	// ========== Announcements ==========
	announcementRepo := announcement.NewRepository(database.DB)
	announcementSvc := announcement.NewService(announcementRepo, eventSvc, auditSvc, publisher)
	announcementHandler := announcement.NewHandler(announcementSvc)

	// ========== Reports ==========
	reportsRepo := reports.NewRepository(database.DB)
	reportsSvc := reports.NewService(reportsRepo, eventSvc, reports.NewReportExporter(), auditSvc)
	reportsHandler := reports.NewHandler(reportsSvc)

	auditHandler := auditlog.NewHandler(auditSvc, eventSvc)

	// Public invite preview
	api.GET("/invites/:code", eventHandler.GetInvitePreview)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(authSvc, profileSvc))

	protected.POST("/invites/:code/join", memberHandler.JoinByInviteCode)
	protected.GET("/dashboard", eventHandler.Dashboard)

	profileRoutes := protected.Group("/profiles")
	{
		profileRoutes.GET("/me", profileHandler.GetMyProfile)
		profileRoutes.PUT("/me", profileHandler.UpdateMyProfile)
		profileRoutes.GET("/:id", profileHandler.GetProfile)
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.GET("/hosted", eventHandler.ListHostedEvents)
		eventRoutes.GET("/participating", eventHandler.ListParticipatingEvents)
		eventRoutes.GET("/:id", eventHandler.GetEvent)
		eventRoutes.PATCH("/:id", eventHandler.UpdateEvent)
		eventRoutes.PUT("/:id/close", eventHandler.CloseEvent)
		eventRoutes.DELETE("/:id", eventHandler.DeleteEvent)

		// Members
		eventRoutes.GET("/:id/members", memberHandler.ListMembers)
		eventRoutes.POST("/:id/members", memberHandler.RequestJoin)
		eventRoutes.GET("/:id/members/me", memberHandler.MyMembership)
		eventRoutes.POST("/:id/members/me/withdraw", memberHandler.Withdraw)
		eventRoutes.GET("/:id/members/export", reportsHandler.ExportMembers)
		eventRoutes.PATCH("/:id/members/:userId", memberHandler.UpdateStatus)
		eventRoutes.DELETE("/:id/members/:userId", memberHandler.RemoveMember)

		// Announcements
		eventRoutes.GET("/:id/announcements", announcementHandler.List)
		eventRoutes.POST("/:id/announcements", announcementHandler.Create)

		// Audit trail (host only)
		eventRoutes.GET("/:id/audit", auditHandler.GetEventAuditLogs)
		eventRoutes.GET("/:id/audit/export", reportsHandler.ExportAuditLogs)
	}

	announcementRoutes := protected.Group("/announcements")
	{
		announcementRoutes.GET("/:id", announcementHandler.Get)
		announcementRoutes.PATCH("/:id", announcementHandler.Update)
		announcementRoutes.DELETE("/:id", announcementHandler.Delete)
	}

	notificationRoutes := protected.Group("/notifications")
	{
		notificationRoutes.GET("", notificationHandler.List)
		notificationRoutes.PUT("/:id/read", notificationHandler.MarkRead)
		notificationRoutes.POST("/devices", notificationHandler.RegisterDevice)
		notificationRoutes.DELETE("/devices", notificationHandler.RemoveDevice)
		notificationRoutes.GET("/ws", notificationHandler.Stream)
	}
}
