// Package main runs schema migrations for the optional Postgres cache
// backend.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/varpipe-io/varpipe/internal/config"
)

func main() {
	command := flag.String("command", "up", "migration command: up, down, version")
	migrationsPath := flag.String("path", "internal/cache/migrations", "path to migration files")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("varpipe-migrate: failed to load configuration: %v", err)
	}

	dsn := cfg.GetString("cache.postgres.dsn", "")
	if dsn == "" {
		log.Fatal("varpipe-migrate: cache.postgres.dsn is not configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("varpipe-migrate: failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		log.Fatalf("varpipe-migrate: failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*migrationsPath, "postgres", driver)
	if err != nil {
		log.Fatalf("varpipe-migrate: failed to initialize migrator: %v", err)
	}

	switch *command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatalf("varpipe-migrate: failed to read version: %v", verr)
		}

		log.Printf("version=%d dirty=%v\n", version, dirty)

		return
	default:
		log.Fatalf("varpipe-migrate: unknown command %q", *command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("varpipe-migrate: migration failed: %v", err)
	}

	log.Printf("varpipe-migrate: %s complete\n", *command)
}
