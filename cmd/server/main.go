package main

import (
	"log"

	"github.com/Flynicolas/premio-caixa-magica-sub006/config"
	"github.com/Flynicolas/premio-caixa-magica-sub006/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env so DATABASE_URL and PLATFORM_URL are set: cwd .env or project root .env/.env.local
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../.env.local")
	cfg := config.Load()
	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
