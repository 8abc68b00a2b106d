package main

import (
	"log"

	"anoa.com/lumirarewards/internal/config"
	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/server"
	"anoa.com/lumirarewards/pkg/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedLevels(db); err != nil {
		log.Fatalf("failed to seed level definitions: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
	} else {
		log.Println("REDIS_URL not set, running without cross-process locks and expiry notifications")
	}

	srv := server.NewServer(db, redisClient, cfg)
	if err := srv.Run(cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Transaction{},
		&model.LevelDefinition{},
		&model.UserLevelState{},
		&model.StreakState{},
		&model.Campaign{},
		&model.Referral{},
		&model.Commission{},
	)
}

// seedLevels installs the default threshold ladder on an empty table.
// Admins manage the real ladder afterwards; the engine only reads it.
func seedLevels(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.LevelDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.LevelDefinition{
		{LevelNumber: 1, Name: "Bronze", XPRequired: 0, Color: "#cd7f32", Benefits: "Member pricing"},
		{LevelNumber: 2, Name: "Silver", XPRequired: 100, Color: "#c0c0c0", Benefits: "Free shipping over $50"},
		{LevelNumber: 3, Name: "Gold", XPRequired: 300, Color: "#ffd700", Benefits: "Free shipping"},
		{LevelNumber: 4, Name: "Platinum", XPRequired: 750, Color: "#e5e4e2", Benefits: "Early access to sales"},
		{LevelNumber: 5, Name: "Diamond", XPRequired: 1500, Color: "#b9f2ff", Benefits: "Personal shopper"},
	}
	for _, def := range defaults {
		if err := db.Create(&def).Error; err != nil {
			return err
		}
	}
	log.Println("Default level definitions seeded")
	return nil
}
