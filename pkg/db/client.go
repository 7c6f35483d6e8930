package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// Client is one pooled gorm connection. The service keeps two: "normales"
// (stock orders and prices) and "clientes" (custom orders).
type Client struct {
	name   string
	driver string
	conn   *gorm.DB
}

// New opens the named database and verifies it answers before returning.
func New(ctx context.Context, cfg config.DBConfig, name, dsn string, logg *logger.Logger) (*Client, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required for %s", name)
	}

	driver, dialector := dialectorFor(cfg, dsn)
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", name, err)
	}

	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool handle: %w", name, err)
	}
	tunePool(pool, cfg)

	if err := pool.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("pinging %s: %w", name, err), pool.Close())
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"database": name, "driver": driver}), "db.connected")
	}
	return &Client{name: name, driver: driver, conn: conn}, nil
}

func dialectorFor(cfg config.DBConfig, dsn string) (string, gorm.Dialector) {
	if cfg.IsSQLite() {
		return config.DriverSQLite, sqlite.Open(dsn)
	}
	// Simple protocol keeps pgbouncer in transaction mode happy.
	return config.DriverPostgres, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
}

func tunePool(pool *sql.DB, cfg config.DBConfig) {
	if n := cfg.MaxOpenConns; n > 0 {
		pool.SetMaxOpenConns(n)
	}
	if n := cfg.MaxIdleConns; n > 0 {
		pool.SetMaxIdleConns(n)
	}
	if d := cfg.ConnMaxLifetime; d > 0 {
		pool.SetConnMaxLifetime(d)
	}
	if d := cfg.ConnMaxIdleTime; d > 0 {
		pool.SetConnMaxIdleTime(d)
	}
}

// Wrap adopts an already open connection. Tests use it with in-memory sqlite.
func Wrap(name, driver string, conn *gorm.DB) *Client {
	return &Client{name: name, driver: driver, conn: conn}
}

func (c *Client) Name() string   { return c.name }
func (c *Client) Driver() string { return c.driver }
func (c *Client) DB() *gorm.DB   { return c.conn }

// Ping is what /health reports per database.
func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// WithTx runs fn in a transaction bound to ctx. An error or panic from fn
// rolls back.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
