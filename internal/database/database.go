package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/models"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Options selects and tunes the database connection
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Open connects to the configured database
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	case DriverMySQL:
		dialector = mysql.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, apperrors.Configuration(fmt.Sprintf("unsupported database driver %q", opts.Driver))
	}
	if opts.DSN == "" {
		return nil, apperrors.Configuration("database.dsn is required")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.WithField("driver", opts.Driver).Info("Connected to database")
	return db, nil
}

// Migrate creates the connector's transaction table. With orders set it also
// creates the order tables, which normally belong to the store.
func Migrate(db *gorm.DB, orders bool) error {
	tables := []any{&models.Transaction{}}
	if orders {
		tables = append(tables, &models.Order{}, &models.OrderHistory{}, &models.OrderMessage{})
	}
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	log.WithField("orders", orders).Info("Database migration completed successfully")
	return nil
}

type txKey struct{}

// WithTx returns a context carrying tx so that stores called with it join
// the same database transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction carried by ctx, or db when there is none.
// The result is bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
