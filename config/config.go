package config

import (
	"os"
	"strconv"
)

type Config struct {
	PlatformURL  string // wallet platform base URL
	EnginePort   int
	DataDir      string
	AdminSecret  string // gates forced-outcome draw parameters
	GameName     string
	GameProvider string
	DefaultSlots int // roulette display slots when slotsCount is omitted
}

func Load() *Config {
	platformURL := os.Getenv("PLATFORM_URL")
	if platformURL == "" {
		platformURL = "http://localhost:3000"
	}
	port := 8090
	// Prefer PORT (Render, Fly.io, Railway, etc.) then ENGINE_PORT
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	} else if p := os.Getenv("ENGINE_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	}
	dataDir := os.Getenv("ENGINE_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	gameName := os.Getenv("GAME_NAME")
	if gameName == "" {
		gameName = "Caixa Magica"
	}
	gameProvider := os.Getenv("GAME_PROVIDER")
	if gameProvider == "" {
		gameProvider = "Premio"
	}
	slots := 25
	if s := os.Getenv("ENGINE_DEFAULT_SLOTS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			slots = v
		}
	}
	return &Config{
		PlatformURL:  platformURL,
		EnginePort:   port,
		DataDir:      dataDir,
		AdminSecret:  os.Getenv("ENGINE_ADMIN_SECRET"),
		GameName:     gameName,
		GameProvider: gameProvider,
		DefaultSlots: slots,
	}
}
