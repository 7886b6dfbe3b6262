// Package migrations применяет встроенную схему базы данных.
package migrations

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schema string

// Execer подмножество pgxpool.Pool, нужное для миграции
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Schema возвращает SQL встроенной схемы
func Schema() string {
	return schema
}

// Apply выполняет схему. Все выражения идемпотентны, повторный запуск безопасен.
func Apply(ctx context.Context, db Execer, log *logger.Logger) error {
	// Без аргументов pgx использует простой протокол, что допускает несколько выражений
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Infow("Database schema applied")
	return nil
}
