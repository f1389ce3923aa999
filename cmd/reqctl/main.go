// Package main provides the requirement lifecycle command-line client.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	platformcmd "github.com/reqforge/reqforge/internal/platform/cmd"
	"github.com/reqforge/reqforge/internal/platform/config"
	"github.com/reqforge/reqforge/internal/tools/reqctl"
)

func main() {
	cfg, err := reqctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceRequirements, func(ctx context.Context) error {
		return reqctl.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	config.ExitOnError(err)
}
