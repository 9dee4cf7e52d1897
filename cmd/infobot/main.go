package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/infobot/app"
	corecmd "github.com/m3rciful/infobot/core/cmd"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	if err := corecmd.Run(corecmd.Options{
		ConfigEnvVar: "CONFIG_PATH",
		LoadConfig:   app.LoadConfig,
		Bootstrap:    app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}
