package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	statedump "github.com/louisbranch/tinykingdom/internal/cmd/statedump"
	"github.com/louisbranch/tinykingdom/internal/platform/config"
)

// main prints the committed world state and cycle history.
func main() {
	cfg, err := statedump.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := statedump.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("dump state: %v", err)
	}
}
