// Package main wires the kitties ledger gRPC service process lifecycle.
//
// It reads config from flags/env and runs the server until shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	kittiescmd "github.com/louisbranch/kitties/internal/cmd/kitties"
)

func main() {
	cfg, err := kittiescmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[KITTIES] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kittiescmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
