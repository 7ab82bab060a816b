package db

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database holds the database connection pool
type Database struct {
	Pool *pgxpool.Pool
}

// NewDatabase connects with the default retry policy for serverless databases
func NewDatabase(ctx context.Context, dsn string) (*Database, error) {
	return NewDatabaseWithRetry(ctx, dsn, 5, time.Second)
}

// NewDatabaseWithRetry creates a new database connection with configurable retry logic
func NewDatabaseWithRetry(ctx context.Context, dsn string, maxRetries int, initialDelay time.Duration) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 30
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Simple protocol keeps the Neon pooler happy
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	origHost := poolConfig.ConnConfig.Host
	poolConfig.ConnConfig.DialFunc = preferIPv4Dial(origHost)
	if poolConfig.ConnConfig.TLSConfig != nil && poolConfig.ConnConfig.TLSConfig.ServerName == "" {
		poolConfig.ConnConfig.TLSConfig.ServerName = origHost
	}

	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[TEFF-DB] Connection attempt %d/%d to database %s@%s:%d",
			attempt, maxRetries, poolConfig.ConnConfig.User, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			lastErr = fmt.Errorf("failed to create connection pool: %w", err)
			log.Printf("[TEFF-DB] Failed to create pool (attempt %d): %v", attempt, err)
			pool = nil
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Printf("[TEFF-DB] Successfully connected to database on attempt %d", attempt)
				break
			}
			lastErr = fmt.Errorf("failed to ping database: %w", err)
			log.Printf("[TEFF-DB] Connection failed (attempt %d): %v", attempt, err)
			pool.Close()
			pool = nil
		}

		if attempt < maxRetries {
			// Exponential backoff: 1s, 2s, 4s, 8s
			delay := initialDelay * time.Duration(1<<(attempt-1))
			log.Printf("[TEFF-DB] Retrying in %v...", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
	}

	db := &Database{Pool: pool}
	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.InitSchema(schemaCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("[TEFF-DB] Database connection established successfully")
	return db, nil
}

// preferIPv4Dial resolves the host and dials an A record first, falling back to the first address.
func preferIPv4Dial(origHost string) func(ctx context.Context, network, address string) (net.Conn, error) {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil || host == "" || port == "" {
			host = origHost
			port = "5432"
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err == nil {
			for _, ipa := range ips {
				if ipv4 := ipa.IP.To4(); ipv4 != nil {
					return (&net.Dialer{}).DialContext(ctx, "tcp4", net.JoinHostPort(ipv4.String(), port))
				}
			}
			if len(ips) > 0 {
				return (&net.Dialer{}).DialContext(ctx, "tcp", net.JoinHostPort(ips[0].IP.String(), port))
			}
		}
		return (&net.Dialer{}).DialContext(ctx, "tcp4", address)
	}
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("[TEFF-DB] Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NULL,
		role          VARCHAR(20) NOT NULL DEFAULT 'user',
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id              TEXT PRIMARY KEY,
		merchant_id     TEXT NOT NULL REFERENCES users(id),
		variety         VARCHAR(10) NOT NULL,
		price_per_kilo  NUMERIC(12,2) NOT NULL CHECK (price_per_kilo >= 0),
		stock_available NUMERIC(12,3) NOT NULL CHECK (stock_available >= 0),
		description     TEXT NOT NULL DEFAULT '',
		active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_products_merchant ON products(merchant_id) WHERE active;`,
	`CREATE TABLE IF NOT EXISTS carts (
		user_id    TEXT NOT NULL,
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity   NUMERIC(12,3) NOT NULL CHECK (quantity > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, product_id)
	);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                 TEXT PRIMARY KEY,
		customer_name      TEXT NOT NULL,
		customer_phone     TEXT NOT NULL,
		customer_email     TEXT NOT NULL DEFAULT '',
		customer_address   TEXT NOT NULL,
		customer_kebele    TEXT NOT NULL,
		customer_maps_link TEXT NOT NULL DEFAULT '',
		total_amount       NUMERIC(14,2) NOT NULL,
		order_status       VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status     VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_proof      TEXT NOT NULL DEFAULT '',
		created_by         TEXT NULL,
		assigned_by        TEXT NULL,
		completed_at       TIMESTAMPTZ NULL,
		notes              VARCHAR(1000) NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_by ON orders(created_by, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(order_status, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id        TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line_no         INTEGER NOT NULL,
		product_id      TEXT NOT NULL,
		merchant_id     TEXT NOT NULL,
		variety         VARCHAR(10) NOT NULL,
		quantity        NUMERIC(12,3) NOT NULL,
		price_per_kilo  NUMERIC(12,2) NOT NULL,
		subtotal        NUMERIC(14,2) NOT NULL,
		stock_decreased BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (order_id, line_no)
	);`,
	`CREATE TABLE IF NOT EXISTS order_merchants (
		order_id      TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		merchant_id   TEXT NOT NULL,
		merchant_name TEXT NOT NULL,
		amount        NUMERIC(14,2) NOT NULL,
		position      INTEGER NOT NULL,
		PRIMARY KEY (order_id, merchant_id)
	);`,
	`CREATE TABLE IF NOT EXISTS order_assignments (
		order_id            TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		merchant_id         TEXT NOT NULL,
		status              VARCHAR(20) NOT NULL DEFAULT 'pending',
		notification_method VARCHAR(20) NOT NULL DEFAULT 'dashboard',
		phone_called        BOOLEAN NOT NULL DEFAULT FALSE,
		message_sent        BOOLEAN NOT NULL DEFAULT FALSE,
		notified_at         TIMESTAMPTZ NULL,
		position            INTEGER NOT NULL,
		PRIMARY KEY (order_id, merchant_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_assignments_merchant ON order_assignments(merchant_id);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		type       VARCHAR(30) NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		order_id   TEXT NULL,
		status     VARCHAR(10) NOT NULL DEFAULT 'unread',
		read_at    TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, status, created_at DESC);`,
}

// InitSchema creates any missing tables and indexes
func (db *Database) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	log.Println("[TEFF-DB] Database schema verified successfully")
	return nil
}
