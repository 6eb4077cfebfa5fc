package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/spacebox-app/spacebox/internal/server"
	"github.com/spacebox-app/spacebox/internal/server/config"
)

func main() {

	ctx := context.Background()

	// .env is optional; real env vars and flags win either way
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
