package main

import (
	"context"
	"log"

	"github.com/planquery/appealvault/internal/archive/config"
	"github.com/planquery/appealvault/internal/cli"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
