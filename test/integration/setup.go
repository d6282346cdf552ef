package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"booze-courier/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing. The constraints here
// back the application-level guarantees: one delivery per order, at most one
// active payment per order, one driver profile per user.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			phone VARCHAR(50) NOT NULL DEFAULT '',
			age_verified BOOLEAN NOT NULL DEFAULT FALSE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			merchant_id UUID,
			driver_id UUID,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(50) NOT NULL,
			PRIMARY KEY (user_id, role)
		);

		CREATE TABLE IF NOT EXISTS merchants (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			address VARCHAR(500) NOT NULL DEFAULT '',
			phone VARCHAR(50) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			opening_time VARCHAR(10) NOT NULL DEFAULT '',
			closing_time VARCHAR(10) NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			merchant_id UUID NOT NULL REFERENCES merchants(id),
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DECIMAL(10, 2) NOT NULL,
			alcohol BOOLEAN NOT NULL DEFAULT FALSE,
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS drivers (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES users(id),
			vehicle_type VARCHAR(50) NOT NULL DEFAULT '',
			license_plate VARCHAR(50) NOT NULL DEFAULT '',
			available BOOLEAN NOT NULL DEFAULT FALSE,
			certification_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			current_latitude DOUBLE PRECISION,
			current_longitude DOUBLE PRECISION,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_deliveries INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			customer_id UUID NOT NULL REFERENCES users(id),
			merchant_id UUID NOT NULL REFERENCES merchants(id),
			driver_id UUID REFERENCES drivers(id),
			status VARCHAR(20) NOT NULL,
			total_amount DECIMAL(10, 2) NOT NULL DEFAULT 0,
			delivery_address VARCHAR(500) NOT NULL,
			special_instructions TEXT NOT NULL DEFAULT '',
			age_verified BOOLEAN NOT NULL DEFAULT FALSE,
			estimated_delivery_time TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID REFERENCES products(id) ON DELETE SET NULL,
			line_no INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			unit_price DECIMAL(10, 2) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			subtotal DECIMAL(10, 2) NOT NULL,
			alcohol BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (order_id, line_no)
		);

		CREATE TABLE IF NOT EXISTS deliveries (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL UNIQUE REFERENCES orders(id),
			driver_id UUID REFERENCES drivers(id),
			status VARCHAR(20) NOT NULL,
			delivery_address VARCHAR(500) NOT NULL DEFAULT '',
			delivery_latitude DOUBLE PRECISION,
			delivery_longitude DOUBLE PRECISION,
			pickup_time TIMESTAMP,
			delivered_time TIMESTAMP,
			estimated_delivery_time TIMESTAMP,
			age_verified BOOLEAN NOT NULL DEFAULT FALSE,
			id_type VARCHAR(50) NOT NULL DEFAULT '',
			id_number VARCHAR(10) NOT NULL DEFAULT '',
			age_verified_at TIMESTAMP,
			current_latitude DOUBLE PRECISION,
			current_longitude DOUBLE PRECISION,
			last_location_update TIMESTAMP,
			cancellation_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			user_id UUID NOT NULL REFERENCES users(id),
			amount DECIMAL(10, 2) NOT NULL,
			status VARCHAR(20) NOT NULL,
			payment_method VARCHAR(50) NOT NULL DEFAULT '',
			transaction_id VARCHAR(100) NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			refund_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			rater_id UUID NOT NULL REFERENCES users(id),
			target_type VARCHAR(20) NOT NULL,
			target_id UUID NOT NULL,
			score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (order_id, target_type)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_active
			ON payments(order_id) WHERE status = 'AUTHORIZED';

		CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
		CREATE INDEX IF NOT EXISTS idx_orders_merchant_id ON orders(merchant_id);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_deliveries_driver_id ON deliveries(driver_id);
		CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id);
		CREATE INDEX IF NOT EXISTS idx_ratings_target ON ratings(target_type, target_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedUser inserts a user with the given roles and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name string, ageVerified bool, roles ...model.Role) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	id := uuid.New()

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, email, age_verified) VALUES ($1, $2, $3, $4)`,
		id, name, fmt.Sprintf("%s-%s@example.com", name, id), ageVerified,
	)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", name, err)
	}

	for _, role := range roles {
		_, err := pool.Exec(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, id, role)
		if err != nil {
			t.Fatalf("failed to seed role %s: %v", role, err)
		}
	}

	return id
}

// SeedMerchant inserts an active merchant at the given coordinates.
func SeedMerchant(t *testing.T, pool *pgxpool.Pool, name string, lat, lon float64) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO merchants (id, name, latitude, longitude) VALUES ($1, $2, $3, $4)`,
		id, name, lat, lon,
	)
	if err != nil {
		t.Fatalf("failed to seed merchant %s: %v", name, err)
	}
	return id
}

// SeedProduct inserts an available product for the merchant.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, merchantID uuid.UUID, name string, price float64, alcohol bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, merchant_id, name, price, alcohol) VALUES ($1, $2, $3, $4, $5)`,
		id, merchantID, name, price, alcohol,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return id
}

// SeedDriver inserts a certified, available driver profile for the user.
func SeedDriver(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO drivers (id, user_id, vehicle_type, available, certification_status)
		 VALUES ($1, $2, 'car', TRUE, $3)`,
		id, userID, model.CertificationApproved,
	)
	if err != nil {
		t.Fatalf("failed to seed driver: %v", err)
	}
	return id
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"ratings", "payments", "deliveries", "order_items", "orders",
		"drivers", "products", "merchants", "user_roles", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
