package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	accountdomain "github.com/harborline/ledger/internal/account/domain"
	ledgerdomain "github.com/harborline/ledger/internal/ledger/domain"
	partydomain "github.com/harborline/ledger/internal/party/domain"
	settlementdomain "github.com/harborline/ledger/internal/settlement/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded SQL migrations so the service is usable
// out of the box against a fresh database.
func RunMigrations(db *sql.DB, dbType string) error {
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

	var driver database.Driver
	switch dbType {
	case "postgres":
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return fmt.Errorf("no migration driver for %s", dbType)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dbType, driver)
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

// AutoMigrate builds the schema from the gorm models. Used for sqlite, which
// the versioned SQL migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&accountdomain.Account{},
		&partydomain.Party{},
		&ledgerdomain.GLEntry{},
		&settlementdomain.Invoice{},
		&settlementdomain.Payment{},
		&settlementdomain.Allocation{},
	)
}
