package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/migrations"
)

// RunMigrations applies the embedded schema migrations. goose works over
// database/sql, so it gets its own short-lived connection via the pgx
// stdlib driver instead of the pool.
func RunMigrations(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) error {
	conn, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	logger.Info("Database migrations applied")
	return nil
}
