package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/multierr"
)

// OpenPostgresSQL opens a plain database/sql handle over lib/pq. goose runs
// its migrations on it; the services use the gorm Client instead.
func OpenPostgresSQL(ctx context.Context, name, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required for %s", name)
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing %s dsn: %w", name, err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("pinging %s: %w", name, err), conn.Close())
	}
	return conn, nil
}
