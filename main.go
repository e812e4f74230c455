package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"game-room-system/handlers"
	"game-room-system/middleware"
	"game-room-system/models"
	"game-room-system/services"
	"game-room-system/utils"
	"game-room-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// All traffic must come through the Gateway
	app.Use(middleware.GatewayAuthMiddleware())

	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID, X-User-Name, X-Service-Token",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError turns driver unique-violations into
	// gorm.ErrDuplicatedKey, which the allocator relies on for the
	// duplicate-seat guard.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Game{},
		&models.TournamentBlock{},
		&models.Room{},
		&models.RoomParticipant{},
		&models.RewardRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	walletURL := os.Getenv("WALLET_SERVICE_URL")
	if walletURL == "" {
		log.Fatal("WALLET_SERVICE_URL environment variable not set")
	}
	ledger := services.NewWalletServiceClient(walletURL, os.Getenv("WALLET_SERVICE_TOKEN"))

	blockService := services.NewBlockService(db)
	settlementService := services.NewSettlementService(db, ledger)
	roomService := services.NewRoomService(db, blockService, ledger)
	scoreService := services.NewScoreService(db, settlementService)
	leaderboardService := services.NewLeaderboardService(db)

	// Optional settlement audit archive (R2)
	archiver, err := utils.NewR2Archiver()
	if err != nil {
		log.Fatal("failed to initialize R2 archiver:", err)
	}
	if archiver != nil {
		settlementService.Archiver = archiver
		log.Println("Settlement audit archiving to R2 enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Timeout reaper for stuck rooms
	reaper := workers.NewRoomReaper(db, settlementService)
	reaper.Interval = time.Duration(getEnvInt("REAPER_INTERVAL_MINUTES", 3)) * time.Minute
	reaper.Staleness = time.Duration(getEnvInt("GAME_TIMEOUT_MINUTES", 30)) * time.Minute
	go reaper.Run(ctx)

	// Wall-clock scheduler for tournament block activation
	sched, err := blockService.StartBlockScheduler()
	if err != nil {
		log.Fatal("failed to start block scheduler:", err)
	}

	handlers.SetupGameRoutes(app, roomService, scoreService, blockService, leaderboardService)

	port := getEnv("PORT", "5300")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", port)
	log.Printf("Room reaper running (every %s, staleness %s)", reaper.Interval, reaper.Staleness)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
