//go:build integration

package fixtures

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type config struct {
	image    string
	dbName   string
	user     string
	password string
	gooseUp  bool
	gooseFS  fs.FS
}

// Option configures BootOnce's container and optional migration run.
type Option func(*config)

func WithImage(i string) Option    { return func(c *config) { c.image = i } }
func WithDBName(n string) Option   { return func(c *config) { c.dbName = n } }
func WithUser(u string) Option     { return func(c *config) { c.user = u } }
func WithPassword(p string) Option { return func(c *config) { c.password = p } }

// WithMigrations runs goose's migrations out of migFS against the booted
// database before any sandbox is handed out.
func WithMigrations(migFS fs.FS) Option {
	return func(c *config) {
		c.gooseUp = true
		c.gooseFS = migFS
	}
}

var (
	once       sync.Once
	pg         *postgres.PostgresContainer
	connString string
	bootErr    error
)

func boot(ctx context.Context, c *config) error {
	once.Do(func() {
		if c.image == "" {
			c.image = "docker.io/postgres:16-alpine"
		}
		if c.dbName == "" {
			c.dbName = "engine"
		}
		if c.user == "" {
			c.user = "postgres"
		}
		if c.password == "" {
			c.password = "pass"
		}

		container, err := postgres.Run(ctx,
			c.image,
			postgres.WithDatabase(c.dbName),
			postgres.WithUsername(c.user),
			postgres.WithPassword(c.password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			bootErr = err
			return
		}
		pg = container

		host, _ := container.Host(ctx)
		port, _ := container.MappedPort(ctx, "5432/tcp")
		connString = "postgres://" + c.user + ":" + c.password + "@" + host + ":" + port.Port() + "/" + c.dbName + "?sslmode=disable"

		if c.gooseUp {
			db, err := sql.Open("pgx", connString)
			if err != nil {
				bootErr = err
				return
			}
			defer db.Close()

			goose.SetBaseFS(c.gooseFS)
			if err := goose.SetDialect("postgres"); err != nil {
				bootErr = err
				return
			}
			if err := goose.Up(db, "."); err != nil {
				bootErr = err
				return
			}
		}
	})
	return bootErr
}

// Shutdown terminates the booted container, if any. Call it once at the
// end of a TestMain; it is not required for correctness (the container is
// disposable either way), only for not leaving it running after the suite
// exits.
func Shutdown() error {
	if pg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pg.Terminate(ctx)
}
