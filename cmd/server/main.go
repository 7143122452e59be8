package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/mediakeeper/internal/buildinfo"
	"github.com/dmitrijs2005/mediakeeper/internal/server"
	"github.com/dmitrijs2005/mediakeeper/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.IssueTokenFor != "" {
		if err := server.IssueToken(os.Stdout, cfg, cfg.IssueTokenFor); err != nil {
			log.Fatalf("issue token: %v", err)
		}
		return
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	buildinfo.PrintBuildData(os.Stdout)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
