package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"karma_server/config"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps the bun database handle with additional functionality
type DB struct {
	*bun.DB
	driver string
}

var instance *DB

// Open connects to the database described by dbCfg and verifies the connection
func Open(dbCfg *structs.DatabaseConfig, logger *gecho.Logger) (*DB, error) {
	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch dbCfg.Driver {
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", postgresDSN(dbCfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		sqldb.SetMaxOpenConns(dbCfg.MaxConns)
		sqldb.SetMaxIdleConns(dbCfg.MinConns)
		sqldb.SetConnMaxLifetime(dbCfg.MaxLifetime)
		sqldb.SetConnMaxIdleTime(dbCfg.MaxIdleTime)
		db = bun.NewDB(sqldb, pgdialect.New())
	case DriverSQLite:
		sqldb, err = sql.Open(sqliteshim.ShimName, dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// sqlite allows a single writer
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}

	slow := dbCfg.SlowQuery
	if slow <= 0 {
		slow = time.Second
	}
	db.AddQueryHook(&queryLogHook{logger: logger, slowThreshold: slow})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully", gecho.Field("driver", dbCfg.Driver))

	return &DB{DB: db, driver: dbCfg.Driver}, nil
}

func postgresDSN(dbCfg *structs.DatabaseConfig) string {
	if dbCfg.DSN != "" && dbCfg.DSN != config.DefaultSQLiteDSN {
		return dbCfg.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.Name, dbCfg.SSLMode)
}

// Connect opens the database using the centralized configuration
func Connect() (*DB, error) {
	return Open(config.GetConfig().Database, config.GetLogger())
}

// Initialize sets up the global database instance and makes sure the schema exists
func Initialize() error {
	db, err := Connect()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	instance = db
	return nil
}

// GetInstance returns the global database instance
func GetInstance() *DB {
	if instance == nil {
		log.Fatal("Database instance is not initialized. Call Initialize() first.")
	}
	return instance
}

// Driver reports which backend the handle talks to
func (db *DB) Driver() string {
	return db.driver
}

// CloseInstance closes the global database instance
func CloseInstance() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// GetStats returns connection pool statistics for monitoring
func (db *DB) GetStats() sql.DBStats {
	return db.DB.DB.Stats()
}

// queryLogHook logs slow and failed queries
type queryLogHook struct {
	logger        *gecho.Logger
	slowThreshold time.Duration
}

func (h *queryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if duration > h.slowThreshold {
		h.logger.Warn("Slow database query detected",
			gecho.Field("query", event.Query),
			gecho.Field("duration", duration),
		)
	}

	if event.Err != nil && isRetryableError(event.Err) {
		h.logger.Error("Database connection error",
			gecho.Field("error", event.Err),
			gecho.Field("query", event.Query),
		)
	}
}
