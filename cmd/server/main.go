package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/textgraph/internal/bootstrap"
	"github.com/OFFIS-RIT/textgraph/internal/cli"
	"github.com/OFFIS-RIT/textgraph/internal/config"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	closeLog := bootstrap.InitLogger(cfg, "server")
	defer closeLog()

	if err := cli.RunServer(ctx, cfg); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
}
