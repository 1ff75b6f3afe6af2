package main

import (
	"context"
	"log"

	"github.com/mpetrenko/taskflow/internal/app"
	"github.com/mpetrenko/taskflow/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	a.Run(ctx)
}
