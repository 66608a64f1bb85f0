package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/boxingcrm/core/cmd"
	"github.com/m3rciful/boxingcrm/crm/app"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}
