// Phase 12 - File #287: cmd/kernelctl/main.go
// CLI entry point for LatticeForge: wires a local project.Service against
// the same Postgres-backed repository the kernel server uses, then hands it
// to the cli package's network/project subcommands.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/config"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres"
	"github.com/latticeforge/kernel/internal/infrastructure/database/postgres/repositories"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

const defaultConfigPath = "kernelctl.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	rootCmd := cli.NewRootCommand()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		cfg = config.NewDefaultConfig()
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Monitoring.Logging.Level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	pgPool, err := postgres.NewConnectionPool(cfg.Database.Postgres, logger)
	if err != nil {
		logger.Warn("failed to connect to postgres; network/project commands will fail", logging.Err(err))
	} else {
		defer postgres.Close(pgPool)
	}

	var repo project.Repository
	if pgPool != nil {
		repo = repositories.NewProjectRepository(pgPool, logger)
	}
	svc := project.NewService(repo, logger)

	deps := cli.CommandDependencies{
		Logger:         logger,
		ProjectService: svc,
	}
	cli.RegisterCommands(rootCmd, deps)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.LoadFromFile(path)
}
