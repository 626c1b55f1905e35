package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override logging.level for this run")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "denoised: load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "denoised: %v\n", err)
		}
		os.Exit(1)
	}
}
