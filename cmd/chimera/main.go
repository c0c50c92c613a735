package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/JamesCampbellJr/Project-Chimera/internal/cli"
	"github.com/JamesCampbellJr/Project-Chimera/internal/config"
	"github.com/JamesCampbellJr/Project-Chimera/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := config.FromEnv()

	zl, err := logger.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}

	if err := cli.Execute(cfg, zl); err != nil {
		zl.Fatal().Err(err).Msg("fatal error")
	}
}
