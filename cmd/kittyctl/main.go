// Package main runs the kittyctl command line client.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/kitties/internal/cmd/kittyctl"
)

func main() {
	log.SetPrefix("[KITTYCTL] ")
	log.SetFlags(0)
	cfg, err := kittyctl.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kittyctl.NewRootCommand(cfg, kittyctl.Options{}).ExecuteContext(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
