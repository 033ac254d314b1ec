package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ceyewan/seckill/config"
)

func main() {
	loader, err := config.Load(&config.LoadOptions{
		Paths: []string{".", "./configs", os.Getenv("SECKILL_CONFIG_PATH")},
	})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, loader.Current())
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.close()

	if err := app.run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
