package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eggsplain/eggsplain-front/internal"
	"github.com/eggsplain/eggsplain-front/internal/config"
	"github.com/eggsplain/eggsplain-front/internal/log"
	"github.com/joho/godotenv"
)

var BuildVersion = "dev"

func main() {
	envFile := flag.String("env-file", "", "load environment from file before reading config")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.LogError("Failed to load env file %s: %v", *envFile, err)
			os.Exit(1)
		}
	} else {
		// A local .env is optional
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting eggsplain-front", map[string]any{
		"version": BuildVersion,
	})

	app, err := internal.NewEggsplainFront(context.Background(), cfg)
	if err != nil {
		log.LogError("Failed to create application: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
