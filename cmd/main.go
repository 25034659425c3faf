package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gather-app/gather-backend/config"
	"github.com/gather-app/gather-backend/database"
	"github.com/gather-app/gather-backend/internal/announcement"
	"github.com/gather-app/gather-backend/internal/auditlog"
	"github.com/gather-app/gather-backend/internal/event"
	"github.com/gather-app/gather-backend/internal/member"
	"github.com/gather-app/gather-backend/internal/notification"
	"github.com/gather-app/gather-backend/internal/profile"
	"github.com/gather-app/gather-backend/internal/telemetry"
	"github.com/gather-app/gather-backend/internal/validation"
	"github.com/gather-app/gather-backend/middleware"
	"github.com/gather-app/gather-backend/routes"
	"github.com/gather-app/gather-backend/utils"
)

// @title Gather API
// @version 1.0
// @description Invite-link based one-off events: hosting, joining, member approval and announcements.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg)

	// Schema
	if err := database.Migrate(cfg, db,
		&profile.Profile{},
		&event.Event{},
		&member.EventMember{},
		&announcement.Announcement{},
		&auditlog.AuditLog{},
		&notification.InAppNotification{},
		&notification.DeviceToken{},
	); err != nil {
		log.Fatalf("❌ Database migration failed: %v", err)
	}

	// Init Redis
	if err := utils.InitRedis(cfg); err != nil {
		log.Printf("⚠️ Redis init failed, continuing without cache/pub-sub: %v", err)
	}

	// Init Kafka
	utils.InitializeKafka(cfg)

	// 🔥 Init Firebase
	log.Println("🔄 Initializing Firebase...")
	if err := utils.InitFirebase(cfg); err != nil {
		log.Printf("⚠️ Firebase initialization failed: %v", err)
		log.Println("ℹ️ Continuing without Firebase (push notifications will be disabled)")
	} else if utils.IsFCMEnabled() {
		log.Println("✅ Firebase and FCM initialized successfully")
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Printf("⚠️ Tracing setup failed: %v", err)
	}

	validation.RegisterBindings()

	// Notifications are shared between the HTTP routes and the Kafka consumer
	var mailer notification.Sender
	if m := utils.NewMailer(cfg); m != nil {
		mailer = m
	}
	notificationSvc := notification.NewService(
		notification.NewRepository(db),
		utils.RedisClient,
		mailer,
		notification.NewFCMPusher(utils.FirebaseClient),
	)

	consumerDone := make(chan struct{})
	if utils.KafkaWriter != nil {
		consumer := notification.NewConsumer(utils.NewKafkaReader(cfg), notificationSvc)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				log.Printf("❌ Notification consumer stopped: %v", err)
			}
		}()
	} else {
		close(consumerDone)
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Length", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.Tracing())

	routes.Setup(router, cfg, notificationSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	<-consumerDone
	utils.CloseKafka()
	utils.CloseRedis()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("⚠️ Tracing shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("👋 Bye")
}
