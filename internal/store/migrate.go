package store

import (
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/efren319/GovFunds/config"
	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// Models lists every table-backed type in dependency order.
func Models() []any {
	return []any{
		&projectsdomain.Project{},
		&reportsdomain.Feedback{},
		&reportsdomain.ProjectReport{},
		&budgetdomain.RegionBudget{},
		&budgetdomain.SectorBudget{},
		&budgetdomain.AnnualBudget{},
	}
}

// Migrate brings the schema up to date. PostgreSQL uses the embedded SQL
// migrations; SQLite is created from the models.
func (d *DB) Migrate(log *zap.Logger) error {
	switch d.Driver {
	case DriverPostgres:
		return d.migratePostgres(log)
	case DriverSQLite:
		if err := d.Gorm.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("sqlite schema up to date")
		return nil
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
}

func (d *DB) migratePostgres(log *zap.Logger) error {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// migrate gets its own connection so closing it leaves the pool alone.
	m, err := migrate.NewWithSourceInstance("iofs", src, d.migrateURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			log.Warn("failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("no migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("applied migrations", zap.Uint("version", version))
	return nil
}

// MigrateURL converts the connection settings into the pgx5:// URL that
// golang-migrate expects.
func MigrateURL(cfg *config.DatabaseConfig) string {
	if cfg.DSN != "" {
		if u, err := url.Parse(cfg.DSN); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
			u.Scheme = "pgx5"
			return u.String()
		}
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// serialColumns names the identity column of every serial-keyed table.
var serialColumns = map[string]string{
	"projects":        "project_id",
	"feedback":        "feedback_id",
	"project_reports": "report_id",
	"region_budgets":  "id",
	"sector_budgets":  "id",
	"annual_budgets":  "id",
}

// ResetSequences advances PostgreSQL serial sequences past the highest stored
// id, which is needed after rows were inserted with explicit ids. SQLite needs
// nothing: AUTOINCREMENT follows the max rowid.
func ResetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != DriverPostgres {
		return nil
	}
	for table, col := range serialColumns {
		q := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 1), MAX(%s) IS NOT NULL) FROM %s`,
			table, col, col, col, table,
		)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("reset sequence %s: %w", table, err)
		}
	}
	return nil
}
