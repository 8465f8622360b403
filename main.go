package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"comanda/config"
	"comanda/kds"
	"comanda/middlewares"
	"comanda/models"
	"comanda/router"
	"comanda/utils"

	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	hub := kds.NewHub()

	// With REDIS_ADDR set, publishes travel through Redis so every instance
	// delivers to its own local connections. Either way the services only
	// see the Publisher interface.
	var bus kds.Publisher = hub
	if addr := config.RedisAddr(); addr != "" {
		rdb := kds.NewRedisClient(addr, config.RedisPassword(), 0)
		redisBus := kds.NewRedisBus(rdb, hub)
		go redisBus.Run(context.Background())
		bus = redisBus
		utils.InfoLogger.Printf("Broadcast bus bridged over redis at %s", addr)
	}

	r := router.SetupRouter(db, hub, bus)

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
