package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	apiregistrydomain "github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	auditdomain "github.com/smallbiznis/mainservice/internal/audit/domain"
	notificationdomain "github.com/smallbiznis/mainservice/internal/notification/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&apiregistrydomain.Registration{},
		&apiregistrydomain.UnitRelation{},
		&notificationdomain.Type{},
		&notificationdomain.Subtype{},
		&notificationdomain.HealthIndex{},
		&notificationdomain.Notification{},
		&notificationdomain.Destinatary{},
		&notificationdomain.EnergyConditions{},
		&notificationdomain.EnergyDetection{},
		&notificationdomain.WaterConditions{},
		&notificationdomain.WaterDetection{},
		&notificationdomain.MachineHealthConditions{},
		&notificationdomain.MachineHealthDetection{},
		&notificationdomain.Event{},
		&auditdomain.AuditLog{},
	}
}

// Partial unique indexes backing the api registry conflict rules.
// Postgres and sqlite accept the WHERE form; mysql has no partial indexes.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_api_registries_title_active ON api_registries (title) WHERE is_active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_api_registries_client_mode_active ON api_registries (client_id, is_test) WHERE is_active AND status`,
}

// AutoMigrate builds the schema from the gorm models. It is used for the
// dialects the SQL migrations do not target and by tests.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if conn.Dialector.Name() == "mysql" {
		return nil
	}
	for _, stmt := range partialIndexes {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
