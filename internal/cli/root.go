// Package cli defines the quickfuel-admin command line.
package cli

import (
	"context"
	"fmt"

	"quickfuel-admin/internal/database"
	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/server.yaml"

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "quickfuel-admin",
		Short: "QuickFuel admin dashboard server",
		Long: `quickfuel-admin serves the QuickFuel operator dashboard.

Every protected page runs a session guard that checks the stored access
token and user details against the roles the page allows, and sends the
visitor back to the login page with a notice when the check fails.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "Path to the YAML config file")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newUserCommand(opts))
	return root
}

// ExecuteContext runs the command tree with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.NewFromConfig(cfg.Logging), nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.DB, error) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithField("type", cfg.Database.Type).Info("Database ready")
	return db, nil
}
