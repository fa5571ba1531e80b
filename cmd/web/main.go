// Command web runs the GamePulse analytics HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"gamepulse/internal/app"
	"gamepulse/internal/config"
	"gamepulse/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gamepulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	return application.Run(context.Background())
}
