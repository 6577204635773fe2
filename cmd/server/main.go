package main

import (
	"log"
	"net/http"
	"os"

	"game-night/internal/config"
	"game-night/internal/db"
	"game-night/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		opened, err := db.Open(cfg)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		conn = opened
		if os.Getenv("AUTO_MIGRATE") == "true" {
			if err := db.Migrate(conn); err != nil {
				log.Fatalf("database migration failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
	}

	srv := server.New(conn, cfg)
	defer srv.Close()
	if err := srv.RestoreRooms(); err != nil {
		log.Printf("room restore failed: %v", err)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("game-night server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
