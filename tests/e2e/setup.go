//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"handicraft-store/cmd/bootstrap"
	"handicraft-store/cmd/bootstrap/components"
	"handicraft-store/internal/infra/db"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/tests/common/dbtest"

	"github.com/docker/go-connections/nat"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
)

const (
	pgUser     = "test"
	pgPassword = "testpass"
)

type endpoint struct {
	host string
	port nat.Port
}

func (e endpoint) addr() string { return e.host + ":" + e.port.Port() }

// Containers are started once per test process and shared by every suite in
// it. Each suite gets its own database, and Redis is flushed between subtests.
var (
	postgresOnce sync.Once
	postgresEP   endpoint
	redisOnce    sync.Once
	redisEP      endpoint
)

type environment struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
	cfg    config.Config
}

func setupEnvironment(t *testing.T) environment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pg := postgresEndpoint(t)
	rd := redisEndpoint(t)

	dbConfig := createDatabase(t, pg)
	pool := migrateAndConnect(t, dbConfig)

	cfg := config.NewTestConfig()
	cfg.DB = dbConfig
	cfg.Store.Driver = config.StoreDriverPostgres
	cfg.Store.Migrate = false
	cfg.Redis.Addr = rd.addr()

	rdb := redis.NewClient(&redis.Options{Addr: rd.addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	router := startApp(t, cfg)

	slog.Info("e2e environment ready", "postgres", pg.addr(), "redis", rd.addr(), "database", dbConfig.DBName)
	return environment{pool: pool, redis: rdb, router: router, cfg: cfg}
}

func createDatabase(t *testing.T, pg endpoint) config.DBConfig {
	t.Helper()

	name := "testdb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	adminDSN := fmt.Sprintf("postgres://%s:%s@%s/postgres?sslmode=disable", pgUser, pgPassword, pg.addr())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, adminDSN)
	require.NoError(t, err, "admin connection failed")
	defer admin.Close()

	// CREATE DATABASE contends on the template database when packages run in parallel
	var createErr error
	for attempt := range 5 {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if _, createErr = admin.Exec(ctx, "CREATE DATABASE "+name); createErr == nil {
			break
		}
	}
	require.NoError(t, createErr, "failed to create test database")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		admin, err := pgxpool.New(ctx, adminDSN)
		if err != nil {
			return
		}
		defer admin.Close()
		if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			slog.Warn("failed to drop test database", "database", name, "error", err.Error())
		}
	})

	return config.DBConfig{
		Host:     pg.host,
		Port:     pg.port.Port(),
		User:     pgUser,
		Password: pgPassword,
		DBName:   name,
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}

func migrateAndConnect(t *testing.T, dbConfig config.DBConfig) *pgxpool.Pool {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, db.Migrate(dbConfig, quiet), "database migration failed")

	pool, cleanup, err := db.Connect(dbConfig)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(cleanup)

	require.NoError(t, dbtest.ResetDB(pool), "failed to seed reference data")
	return pool
}

// startApp runs the production fx graph on Postgres and Redis. The outbox
// poller is left out so notification jobs stay observable in the table.
func startApp(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()

	var router *gin.Engine
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(func() *gin.Engine { return gin.New() }),
		bootstrap.LoggerModule,
		bootstrap.JWTModule,
		bootstrap.CacheModule,
		components.PersistenceModule,
		components.UseCaseModule,
		components.HandlerModule,
		fx.Populate(&router),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx), "failed to start application")
	require.NotNil(t, router, "application started without a router")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			slog.Warn("failed to stop application", "error", err.Error())
		}
	})
	return router
}

func postgresEndpoint(t *testing.T) endpoint {
	postgresOnce.Do(func() {
		postgresEP = startContainer(t, testcontainers.ContainerRequest{
			Image:        "postgres:17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       "postgres",
			},
			Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw,size=512m"},
			Cmd: []string{
				"postgres",
				"-c", "fsync=off",
				"-c", "full_page_writes=off",
				"-c", "synchronous_commit=off",
				"-c", "max_connections=200",
			},
			WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable", pgUser, pgPassword, host, port.Port())
			}).WithStartupTimeout(60 * time.Second),
			Labels: map[string]string{"purpose": "e2e-tests"},
		}, "5432/tcp")
	})
	require.NotEmpty(t, postgresEP.host, "postgres container unavailable")
	return postgresEP
}

func redisEndpoint(t *testing.T) endpoint {
	redisOnce.Do(func() {
		redisEP = startContainer(t, testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			Cmd:          []string{"redis-server", "--save", "", "--appendonly", "no"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
			Labels:       map[string]string{"purpose": "e2e-tests"},
		}, "6379/tcp")
	})
	require.NotEmpty(t, redisEP.host, "redis container unavailable")
	return redisEP
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) endpoint {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start %s", req.Image)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			slog.Warn("failed to terminate container", "image", req.Image, "error", err.Error())
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return endpoint{host: host, port: mapped}
}

// SharedSuite is embedded by every e2e package suite.
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Config config.Config
}

func (s *SharedSuite) SetupSuite() {
	env := setupEnvironment(s.T())
	s.Router = env.router
	s.DB = env.pool
	s.Redis = env.redis
	s.Config = env.cfg
}

func (s *SharedSuite) SetupSubTest() {
	require.NoError(s.T(), dbtest.ResetDB(s.DB), "failed to reset database state")
	require.NoError(s.T(), s.Redis.FlushDB(context.Background()).Err(), "failed to flush redis")
}
