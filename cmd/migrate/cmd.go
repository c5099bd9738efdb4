package migrate

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/adapter/postgres"
	"github.com/user/pageview-ranker/pkg/config"
	"github.com/user/pageview-ranker/pkg/logger"
)

// Command is the cobra command.
var Command = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables used by the ranked rows sink and the run ledger",
	RunE:  migrate,
}

type commandFlags struct {
	envFile string
	dsn     string
}

var flags = new(commandFlags)

func init() {
	Command.Flags().StringVar(&flags.envFile, "env-file", ".env", "Optional env file read before the environment")
	Command.Flags().StringVar(&flags.dsn, "dsn", "", "Database connection string, defaults to POSTGRES_URL")
}

func migrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Read(flags.envFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	dsn := flags.dsn
	if dsn == "" {
		dsn = cfg.PostgresURL
	}
	if dsn == "" {
		return fmt.Errorf("no database: set POSTGRES_URL or pass --dsn")
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}
	log.Info("schema applied")
	return nil
}
