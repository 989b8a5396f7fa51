// Package sqlstore implements the repository ports on a relational database
// through GORM. PostgreSQL, MySQL and SQLite are supported.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultTimeout = 10 * time.Second

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config captures the settings required to open the relational store.
type Config struct {
	Driver          string
	DSN             string
	LogLevel        string // silent, error, warn, info
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func setDefaults(c *Config) {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.DSN == "" && c.Driver == DriverSQLite {
		c.DSN = "crm.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

func dialector(c Config) (gorm.Dialector, error) {
	switch c.Driver {
	case DriverPostgres:
		return postgres.Open(c.DSN), nil
	case DriverMySQL:
		return mysql.Open(c.DSN), nil
	case DriverSQLite:
		return sqlite.Open(c.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Open connects to the configured database, tunes the pool and verifies
// connectivity with a ping.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	setDefaults(&cfg)

	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: NewLogger(log, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", cfg.Driver, err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("database connected")
	return db, nil
}

// Migrate creates or updates every table used by the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&customerModel{},
		&detailModel{},
		&affiliationModel{},
	)
}

// Ping reports whether the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation recognises unique-constraint failures from every supported driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

// uniqueColumn reports whether a unique-constraint error names column.
// Driver messages carry the column or index name verbatim.
func uniqueColumn(err error, column string) bool {
	return strings.Contains(err.Error(), column)
}

// likeEscaper neutralises LIKE wildcards. '!' is the escape character because
// a backslash is itself an escape inside MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likeCond returns "<col> LIKE ? ESCAPE '!'".
func likeCond(col string) string {
	return col + " LIKE ? ESCAPE '!'"
}

// containsPattern is the LIKE argument matching term as a literal substring.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
