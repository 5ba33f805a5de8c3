package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"Turnato/config"
	_ "Turnato/config/swagger"
	"Turnato/controllers"
	"Turnato/middleware"
	"Turnato/routes"
	"Turnato/services/catalog"
	"Turnato/services/connectivity"
	"Turnato/services/party"
	"Turnato/services/redis"
	"Turnato/services/socket_io"
	socketio_types "Turnato/services/socket_io/types"
	"Turnato/services/validator"
	"Turnato/sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Turnato API
// @version 1.0
// @description Gin-Gonic server for parties, down-vote matchmaking and turn-based matches
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	godotenv.Load()
	log.Println("Setting up server...")
	cfg := config.Load()

	if cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" || cfg.SessionKey == "" {
		log.Fatal("JWT_SECRET and KEY must be set")
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("Error loading game catalog: %v", err)
		}
		cat = loaded
	}
	rules, err := validator.FromCatalog(cat)
	if err != nil {
		log.Fatalf("Error loading game rules: %v", err)
	}
	log.Printf("Game catalog loaded with %d games", len(cat.All()))

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if cfg.MigratePostgres {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.Connect_redis(cfg)
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redis.CloseRedis(redisClient)

	syncManager := sync.NewSyncManager(redisClient, gormDB)
	sio := socketio_types.NewSocketServer()

	coord := party.NewCoordinator(cat, rules, connectivity.NewMonitor(), party.Options{
		Store:            redisClient,
		Archiver:         syncManager,
		Publisher:        sio,
		ValidatorTimeout: cfg.ValidatorTimeout,
	})

	r := gin.Default()

	middleware.SetUpMiddleware(r, []byte(cfg.SessionKey), cfg.Prod)

	routes.SetupRoutes(r, coord, controllers.HistoryReader(syncManager), []byte(cfg.JWTSecret))

	socketServer := (*socket_io.MySocketServer)(sio)
	socketServer.Start(r, coord, []byte(cfg.JWTSecret), !cfg.Prod)

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-signalC
		log.Println("Shutting down...")
		socketServer.Close()
		redis.CloseRedis(redisClient)
		sqlDB.Close()
		os.Exit(0)
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
