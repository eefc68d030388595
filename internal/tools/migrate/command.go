package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/tools/common"
)

const exitMigrateFailed = 3

func NewRootCommand() *cobra.Command {
	opts := &common.Options{Tool: "migrate"}
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migration tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.Bind(cmd, 30*time.Second)

	cmd.AddCommand(
		newDBCommand(opts, "up", "Apply schema migrations", up),
		newDBCommand(opts, "status", "Report which tables are missing", status),
		newDBCommand(opts, "plan", "Show what up would change (dry-run)", plan),
	)
	return cmd
}

type dbAction func(ctx context.Context, db *gorm.DB) ([]string, error)

func newDBCommand(opts *common.Options, use, short string, action dbAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Execute(use, exitMigrateFailed, func(ctx context.Context) ([]string, error) {
				cfg, db, err := common.LoadConfigDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer common.CloseDB(db)
				details, err := action(ctx, db.WithContext(ctx))
				if err != nil {
					return details, err
				}
				return append(details, "service: "+cfg.OTELServiceName), nil
			})
		},
	}
}

func up(ctx context.Context, db *gorm.DB) ([]string, error) {
	before, err := database.MissingTables(db)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	details := []string{"schema migration applied"}
	if len(before) > 0 {
		details = append(details, "created tables: "+strings.Join(before, ", "))
	}
	return details, nil
}

func status(ctx context.Context, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	missing, err := database.MissingTables(db)
	if err != nil {
		return nil, err
	}
	details := []string{"database reachable"}
	if len(missing) == 0 {
		return append(details, "schema: up to date"), nil
	}
	return append(details, "schema: pending", "missing tables: "+strings.Join(missing, ", ")), nil
}

func plan(ctx context.Context, db *gorm.DB) ([]string, error) {
	missing, err := database.MissingTables(db)
	if err != nil {
		return nil, err
	}
	details := []string{fmt.Sprintf("would run AutoMigrate for %d models", len(database.Models()))}
	if len(missing) > 0 {
		details = append(details, "would create tables: "+strings.Join(missing, ", "))
	} else {
		details = append(details, "tables exist; AutoMigrate would only add missing columns and indexes")
	}
	return append(details, "no mutation executed in plan mode"), nil
}
