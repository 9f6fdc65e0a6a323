package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "cims/internal/errors"
)

// PoolOptions tunes a database/sql pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewMySQL returns a GORM DB for dsn. The server is not contacted here, so an
// unreachable database surfaces per operation as DatabaseUnavailable.
func NewMySQL(dsn string, opts PoolOptions) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: true,
	}), NewGormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// NewGormConfig is shared by the MySQL pools and the test databases so that
// duplicate-key faults are translated into gorm.ErrDuplicatedKey for every dialect.
func NewGormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// Acquire checks out one pooled connection, runs fn against it and returns the
// connection to the pool on every exit path. Failing to obtain a usable
// connection is reported as DatabaseUnavailable.
func Acquire(ctx context.Context, gdb *gorm.DB, fn func(conn *gorm.DB) error) error {
	if gdb == nil {
		return apperrors.ErrDatabaseUnavailable
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, apperrors.ErrDatabaseUnavailable.Message, err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, apperrors.ErrDatabaseUnavailable.Message, err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, apperrors.ErrDatabaseUnavailable.Message, err)
	}

	tx := gdb.WithContext(ctx)
	tx.Statement.ConnPool = conn
	return fn(tx)
}

// Classify converts a store error into a classified application error.
// Errors that are already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.KindConflict, "duplicate entry", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn):
		return apperrors.Wrap(apperrors.KindDatabaseUnavailable, apperrors.ErrDatabaseUnavailable.Message, err)
	default:
		return apperrors.Wrap(apperrors.KindDatabase, "database error occurred", err)
	}
}
