package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"taskAssistant/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate накатывает встроенные миграции через golang-migrate.
// Драйвер pgx5 ждёт схему pgx5:// вместо postgres://.
func Migrate(connString string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("чтение встроенных миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, toPgxURL(connString))
	if err != nil {
		return fmt.Errorf("инициализация мигратора: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

// Down откатывает все миграции, используется в интеграционных тестах
func Down(connString string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("чтение встроенных миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, toPgxURL(connString))
	if err != nil {
		return fmt.Errorf("инициализация мигратора: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откатаны")
	return nil
}

func toPgxURL(connString string) string {
	if strings.HasPrefix(connString, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(connString, "postgres://")
	}
	if strings.HasPrefix(connString, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(connString, "postgresql://")
	}
	return connString
}
