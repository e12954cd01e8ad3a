// Package testhelpers starts throwaway MySQL, Redis and RabbitMQ containers
// for integration tests.
//
// Every helper skips the calling test in -short mode or when no Docker
// provider is reachable, so `go test -short ./...` stays hermetic:
//
//	func TestStore(t *testing.T) {
//	    db := testhelpers.MySQL(t)
//	    // db has the schema applied and is closed on cleanup
//	}
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iliyamo/backoffice/internal/database"
)

func skipUnlessDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// MySQL starts a MySQL 8 container, applies the embedded schema and returns
// an open pool.
func MySQL(t *testing.T) *sql.DB {
	t.Helper()
	skipUnlessDocker(t)
	ctx := context.Background()

	c, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("backoffice"),
		tcmysql.WithUsername("backoffice"),
		tcmysql.WithPassword("backoffice"),
	)
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}

	dsn, err := c.ConnectionString(ctx, "parseTime=true", "loc=UTC", "charset=utf8mb4")
	if err != nil {
		t.Fatalf("mysql connection string: %v", err)
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Redis starts a Redis 7 container and returns a connected client.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	skipUnlessDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	return rdb
}

// RabbitMQ starts a broker and returns its AMQP URL.
func RabbitMQ(t *testing.T) string {
	t.Helper()
	skipUnlessDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	if err != nil {
		t.Fatalf("start rabbitmq container: %v", err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("rabbitmq host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("rabbitmq port: %v", err)
	}
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}
