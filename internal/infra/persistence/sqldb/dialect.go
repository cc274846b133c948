package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect holds the SQL that differs between the supported databases.
type Dialect struct {
	Name       string
	DriverName string

	placeholder func(n int) string
	upsert      string
	migrations  []string
}

var MySQL = Dialect{
	Name:        "mysql",
	DriverName:  "mysql",
	placeholder: func(int) string { return "?" },
	upsert: `
        INSERT INTO orders (id, customer_name, amount, status)
        VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            customer_name = VALUES(customer_name),
            amount = VALUES(amount),
            status = VALUES(status)
    `,
	migrations: []string{`
        CREATE TABLE IF NOT EXISTS orders (
            id BIGINT NOT NULL PRIMARY KEY,
            customer_name VARCHAR(255) NOT NULL,
            amount DECIMAL(20,4) NOT NULL,
            status TINYINT NOT NULL DEFAULT 0,
            INDEX idx_orders_customer_name (customer_name)
        ) DEFAULT CHARSET = utf8mb4
    `},
}

var Postgres = Dialect{
	Name:        "postgres",
	DriverName:  "pgx",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	upsert: `
        INSERT INTO orders (id, customer_name, amount, status)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            customer_name = EXCLUDED.customer_name,
            amount = EXCLUDED.amount,
            status = EXCLUDED.status
    `,
	migrations: []string{
		`
        CREATE TABLE IF NOT EXISTS orders (
            id BIGINT NOT NULL PRIMARY KEY,
            customer_name TEXT NOT NULL,
            amount NUMERIC(20,4) NOT NULL,
            status SMALLINT NOT NULL DEFAULT 0
        )
    `,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_name ON orders (customer_name)`,
	},
}

// DialectFor resolves a store driver name such as "mysql" or "postgres".
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case MySQL.Name:
		return MySQL, nil
	case Postgres.Name, "pg", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

// Open opens and pings a pool for the dialect.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", d.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", d.Name, err)
	}
	return db, nil
}

// Migrate creates the orders table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", d.Name, err)
		}
	}
	return nil
}
