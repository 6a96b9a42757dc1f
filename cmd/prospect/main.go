// Command prospect researches companies across multiple data sources
// concurrently.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/prospect-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prospect-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/prospect-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/prospect-cli/internal/core/services"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	configs, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	manager, err := services.NewDriverManager(configs, services.DefaultDrivers()...)
	if err != nil {
		return fmt.Errorf("initialising drivers: %w", err)
	}

	resultStore, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening result store: %w", err)
	}
	defer func() {
		if closeErr := resultStore.Close(); closeErr != nil {
			logger.Warn("Closing result store: %v", closeErr)
		}
	}()

	cli.Setup(manager, configStore, resultStore, version)
	return cli.Execute()
}
