package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tbayconnect/api/internal/config"
	"github.com/tbayconnect/api/internal/handler"
	"github.com/tbayconnect/api/internal/memstore"
	"github.com/tbayconnect/api/internal/middleware"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/repository"
	"github.com/tbayconnect/api/internal/service"
	"github.com/tbayconnect/api/internal/service/ports"
	"github.com/tbayconnect/api/internal/ws"
	"github.com/tbayconnect/api/migrations"
	"github.com/tbayconnect/api/pkg/alert"
	"github.com/tbayconnect/api/pkg/auth"
	"github.com/tbayconnect/api/pkg/insight"
	"github.com/tbayconnect/api/pkg/mailer"
	"github.com/tbayconnect/api/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           Tbay Connect API
// @version         1.0
// @description     Community event coordination for the Thunder Bay Anishinaabe community: live event feed, wearable device pairing and the manufacturing console.

// @contact.name   API Support
// @contact.email  support@tbayconnect.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Tbay Connect API Server [env=%s]", cfg.App.Env)

	// ==================== Data Store ====================
	// DB_DRIVER selects the store variant at startup: PostgreSQL (with
	// Redis for sessions and Pub/Sub) or the in-memory store for running
	// without any infrastructure. The lifecycle invariants are identical.
	var (
		eventStore  ports.EventStore
		userStore   ports.UserStore
		deviceStore ports.DeviceStore
		accounts    ports.AccountStore
		mfgRepo     *repository.ManufacturingRepository
		rdb         *redis.Client
	)

	if cfg.DB.InMemory() {
		log.Println("🧪 DB_DRIVER=memory: using the in-memory store (nothing is persisted)")
		store := memstore.New()
		seedDemoDevices(store)
		eventStore, userStore, deviceStore, accounts = store, store, store, store
	} else {
		gormLogger := logger.Default.LogMode(logger.Info)
		if cfg.App.Env == "production" {
			gormLogger = logger.Default.LogMode(logger.Warn)
		}

		db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
			Logger: gormLogger,
		})
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		log.Println("✅ Connected to PostgreSQL")

		if err := migrations.Run(cfg.DB.URL()); err != nil {
			log.Printf("⚠️  Migration warning: %v", err)
			log.Println("📦 Falling back to GORM AutoMigrate...")
			// Fallback to AutoMigrate if migration files fail
			if err := db.AutoMigrate(
				&model.User{},
				&model.UserFollow{},
				&model.WaitlistEntry{},
				&model.FCMToken{},
				&model.Event{},
				&model.EventAttendee{},
				&model.Device{},
				&model.Batch{},
				&model.InventoryItem{},
				&model.PurchaseOrder{},
				&model.FirmwareRelease{},
				&model.QAReport{},
				&model.Shipment{},
			); err != nil {
				log.Fatalf("❌ Failed to migrate database: %v", err)
			}
		}
		log.Println("✅ Database migrated successfully")

		userRepo := repository.NewUserRepository(db)
		eventStore = repository.NewEventRepository(db)
		deviceStore = repository.NewDeviceRepository(db)
		userStore = userRepo
		accounts = userRepo
		mfgRepo = repository.NewManufacturingRepository(db)

		// Redis backs the token blacklist and WebSocket fan-out
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Connected to Redis")
	}

	// ==================== Email (SMTP / Mailpit) ====================
	mailClient := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Simulated wearable alerts over FCM
	alertService, err := alert.NewAlertService(cfg.Firebase.CredentialsFile, accounts)
	if err != nil {
		log.Printf("⚠️  Alert service init failed: %v", err)
	}

	// Gemini insight client (cultural context, lunar cycle, speech)
	insightClient := insight.New(insight.Config{
		APIKey:      cfg.Gemini.APIKey,
		TextModel:   cfg.Gemini.TextModel,
		SpeechModel: cfg.Gemini.SpeechModel,
	})

	// Services
	authService := service.NewAuthService(accounts, jwtManager, mailClient, rdb)
	eventService := service.NewEventService(eventStore, userStore, alertService, cfg.Events)
	deviceService := service.NewDeviceService(deviceStore, alertService)

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb)

	// Start Hub event loop
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// MinIO Storage
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (media upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, hub)
	deviceHandler := handler.NewDeviceHandler(deviceService, hub)
	insightHandler := handler.NewInsightHandler(insightClient)
	uploadHandler := handler.NewUploadHandler(minioStorage)
	wsHandler := handler.NewWSHandler(hub, eventService, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	// Swagger UI handling
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "tbayconnect-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public routes
		api.POST("/waitlist", authHandler.JoinWaitlist)
		// The feed is public but ranks with the caller's follows and
		// interests when a valid token accompanies the request
		api.GET("/events", middleware.OptionalAuthMiddleware(jwtManager, rdb), eventHandler.Feed)
		api.GET("/events/:id", eventHandler.Get)
		api.GET("/users/:id/followers/count", authHandler.FollowerCount)
		api.GET("/insights/cultural-context", insightHandler.CulturalContext)
		api.GET("/insights/lunar-cycle", insightHandler.LunarCycle)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth and profile
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/users/me", authHandler.Me)
			protected.PUT("/users/me", authHandler.UpdateProfile)
			protected.POST("/users/me/fcm-token", authHandler.RegisterFCMToken)
			protected.GET("/users/search", authHandler.SearchUsers)
			protected.POST("/users/:id/follow", authHandler.Follow)
			protected.DELETE("/users/:id/follow", authHandler.Unfollow)

			// Event lifecycle
			protected.POST("/events", eventHandler.Create)
			protected.POST("/events/:id/join", eventHandler.Join)
			protected.POST("/events/:id/leave", eventHandler.Leave)
			protected.POST("/events/:id/end", eventHandler.End)
			protected.PUT("/events/:id/location", eventHandler.UpdateCreatorLocation)

			// Devices
			protected.POST("/devices/link", deviceHandler.Link)
			protected.POST("/devices/unlink", deviceHandler.Unlink)
			protected.GET("/devices/me", deviceHandler.MyDevice)
			protected.POST("/devices/me/alert", deviceHandler.TriggerAlert)
			protected.DELETE("/devices/me/alert", deviceHandler.ClearAlert)

			// Insights
			protected.POST("/insights/speech", insightHandler.Speak)

			// Upload
			protected.POST("/upload", uploadHandler.UploadImage)
			protected.POST("/upload/multiple", uploadHandler.UploadMultiple)
			protected.DELETE("/upload/*key", uploadHandler.DeleteImage)
		}

		// Manufacturing console (administrators only). Needs PostgreSQL;
		// in memory mode demo devices are seeded at startup instead.
		if mfgRepo != nil {
			adminHandler := handler.NewAdminHandler(mfgRepo)
			admin := api.Group("/admin")
			admin.Use(middleware.AuthMiddleware(jwtManager, rdb), middleware.AdminMiddleware())
			{
				admin.POST("/devices", adminHandler.CreateDevices)
				admin.GET("/devices", adminHandler.ListDevices)
				admin.POST("/devices/:id/encode", adminHandler.EncodeDevice)
				admin.DELETE("/devices/:id", adminHandler.DeleteDevice)

				admin.POST("/batches", adminHandler.CreateBatch)
				admin.GET("/batches", adminHandler.ListBatches)
				admin.GET("/batches/:id", adminHandler.GetBatch)
				admin.PATCH("/batches/:id", adminHandler.UpdateBatch)
				admin.DELETE("/batches/:id", adminHandler.DeleteBatch)

				admin.POST("/inventory", adminHandler.CreateInventoryItem)
				admin.GET("/inventory", adminHandler.ListInventory)
				admin.PATCH("/inventory/:id", adminHandler.UpdateInventoryItem)
				admin.DELETE("/inventory/:id", adminHandler.DeleteInventoryItem)

				admin.POST("/purchase-orders", adminHandler.CreatePurchaseOrder)
				admin.GET("/purchase-orders", adminHandler.ListPurchaseOrders)
				admin.PATCH("/purchase-orders/:id", adminHandler.UpdatePurchaseOrder)
				admin.DELETE("/purchase-orders/:id", adminHandler.DeletePurchaseOrder)

				admin.POST("/firmware", adminHandler.CreateFirmwareRelease)
				admin.GET("/firmware", adminHandler.ListFirmwareReleases)
				admin.PATCH("/firmware/:id", adminHandler.UpdateFirmwareRelease)
				admin.DELETE("/firmware/:id", adminHandler.DeleteFirmwareRelease)

				admin.POST("/qa-reports", adminHandler.CreateQAReport)
				admin.GET("/qa-reports", adminHandler.ListQAReports)
				admin.DELETE("/qa-reports/:id", adminHandler.DeleteQAReport)

				admin.POST("/shipments", adminHandler.CreateShipment)
				admin.GET("/shipments", adminHandler.ListShipments)
				admin.PATCH("/shipments/:id", adminHandler.UpdateShipment)
				admin.DELETE("/shipments/:id", adminHandler.DeleteShipment)
			}
		} else {
			log.Println("⚠️  Manufacturing console routes disabled in memory mode")
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Tbay Connect API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	hubCancel()
	log.Println("✅ Server exited gracefully")
}

// seedDemoDevices puts a few pre-encoded devices into the in-memory
// store so the pairing flow is usable without the manufacturing console.
func seedDemoDevices(store *memstore.Store) {
	now := time.Now()
	kinds := []model.DeviceKind{model.DeviceKindBracelet, model.DeviceKindNecklace, model.DeviceKindRing}
	for i, kind := range kinds {
		store.PutDevice(&model.Device{
			ID:        fmt.Sprintf("TBDEMO-%04d", i+1),
			Kind:      kind,
			Firmware:  "demo",
			Encoded:   true,
			EncodedAt: &now,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	log.Println("🧪 Seeded demo devices TBDEMO-0001 to TBDEMO-0003 (pre-encoded)")
}
