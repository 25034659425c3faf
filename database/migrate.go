package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gather-app/gather-backend/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings the schema up to date according to cfg.MigrationMode.
// "sql" runs the embedded golang-migrate files, "auto" uses gorm AutoMigrate
// with the given models, "none" leaves the schema alone.
func Migrate(cfg *config.Config, db *gorm.DB, models ...interface{}) error {
	switch cfg.MigrationMode {
	case config.MigrationNone:
		log.Println("ℹ️ Schema migrations disabled")
		return nil
	case config.MigrationAuto:
		log.Println("🔄 Running gorm AutoMigrate...")
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Println("✅ AutoMigrate completed")
		return nil
	default:
		return RunSQLMigrations(cfg.DSN())
	}
}

// RunSQLMigrations applies the embedded SQL files through lib/pq.
func RunSQLMigrations(dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	log.Println("🔄 Running SQL migrations...")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Printf("✅ Schema at version %d (dirty=%v)", version, dirty)
	return nil
}
