package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/engine"
	pgcatalog "github.com/andreluis2005/cognira/internal/infra/postgres"
	pgmigrations "github.com/andreluis2005/cognira/internal/infra/postgres/migrations"
	infraredis "github.com/andreluis2005/cognira/internal/infra/redis"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestPracticeSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateCatalog(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	ds, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("embedded dataset: %v", err)
	}
	if err := pgcatalog.NewCatalogSeeder(pool).Seed(ctx, ds); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// seeding twice replaces the rows
	if err := pgcatalog.NewCatalogSeeder(pool).Seed(ctx, ds); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	catalogs := infraredis.NewCatalogRepository(redisClient, pgcatalog.NewCatalogLoader(pool), 5*time.Minute)
	service := app.NewPracticeService(catalogs, ds.Certification, logger,
		app.WithClock(func() time.Time { return now }),
	)

	cat, err := service.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.QuestionCount() != len(ds.Questions) || cat.TopicCount() != len(ds.Topics) {
		t.Fatalf("catalog mismatch: %d questions, %d topics", cat.QuestionCount(), cat.TopicCount())
	}
	if n, err := redisClient.Exists(ctx, "catalog:"+ds.Certification).Result(); err != nil || n != 1 {
		t.Fatalf("expected catalog cached in redis, exists=%d err=%v", n, err)
	}

	repo := app.NewProgressRepository(infraredis.NewBlobStore(redisClient, 0), cat, logger)
	progress, err := repo.Load(ctx, "learner-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	session := service.NewPracticeSession("", "")
	if _, err := session.Start(ctx, progress); err != nil {
		t.Fatalf("start: %v", err)
	}
	for !session.Done() {
		current, _ := session.Current()
		q, ok := cat.Question(current.ID)
		if !ok {
			t.Fatalf("served unknown question %s", current.ID)
		}
		res, err := session.Answer(ctx, q.ID, q.CorrectOptionID)
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !res.IsCorrect {
			t.Fatalf("expected %s to be scored correct", q.ID)
		}
		if err := repo.Save(ctx, "learner-1", res.UpdatedProgress); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	saved, err := repo.Load(ctx, "learner-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(session.History()) != engine.SessionSize {
		t.Fatalf("expected %d answers, got %d", engine.SessionSize, len(session.History()))
	}
	if saved.Streak != 1 || saved.LastSessionDate != "2025-03-01" {
		t.Fatalf("unexpected streak %d on %q", saved.Streak, saved.LastSessionDate)
	}
	if saved.ReadinessScore <= 0 {
		t.Fatalf("expected readiness to rise, got %d", saved.ReadinessScore)
	}
	if v := service.Validate(saved); !v.Valid {
		t.Fatalf("stored progress invalid: %v", v.Strings())
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "cognira", "POSTGRES_PASSWORD": "cognirapass", "POSTGRES_DB": "cognira"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://cognira:cognirapass@%s/cognira?sslmode=disable", addr), cleanup
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return "redis://" + addr, cleanup
}

// startContainer runs req and returns the host:port mapped to port.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port nat.Port) (string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	cleanup := func() { _ = container.Terminate(ctx) }

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		t.Fatalf("%s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		cleanup()
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return host + ":" + mapped.Port(), cleanup
}

func migrateCatalog(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
