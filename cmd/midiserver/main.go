package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"midi-player/config"
	"midi-player/debug"
	"midi-player/server"
)

func main() {
	addr := flag.String("addr", "", "Listen address. Defaults to server.addr from the config file.")
	verbose := flag.Bool("debug", false, "Log requests to the debug log.")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *verbose || cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Running server on", *addr, "...")
	if err := server.New(cfg.Server.MaxUpload).Run(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
