// Command migrate applies the SQL migrations under db/migrations against the
// configured database.
//
// Usage:
//
//	migrate up              apply all pending migrations
//	migrate down 1          roll back N migrations (default 1)
//	migrate version         print the current schema version
//	migrate force VERSION   mark the schema version after a manual repair
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"dmeflow/internal/config"
)

func main() {
	source := flag.String("source", "file://db/migrations", "migration source URL")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: loading config: %v", err)
	}

	m, err := migrate.New(*source, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("migrate: opening migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, flag.Args()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("migrate: schema is up to date")
		return nil

	case "down":
		n := 1
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 1 {
				return fmt.Errorf("down expects a positive step count, got %q", args[1])
			}
			n = v
		}
		if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Printf("migrate: rolled back %d migration(s)", n)
		return nil

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty=%v)\n", version, dirty)
		return nil

	case "force":
		if len(args) < 2 {
			return errors.New("force expects a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return err
		}
		log.Printf("migrate: forced schema version to %d", v)
		return nil

	default:
		return fmt.Errorf("unknown command %q (want up, down, version or force)", args[0])
	}
}
