package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"blog_api/internal/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	direction := flag.String("direction", "up", "up | down")
	steps := flag.Int("steps", 0, "number of migrations to apply, 0 means all")
	source := flag.String("source", "file://migrations", "migration source url")
	flag.Parse()

	config.LoadConfig()
	cfg := config.GlobalConfig.Database
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	m, err := migrate.New(*source, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if err := run(m, *direction, *steps); err != nil {
		// dirty 状态强制回到记录的版本后重试一次
		var dirty migrate.ErrDirty
		if !errors.As(err, &dirty) {
			log.Fatal(err)
		}
		log.Printf("Database is dirty at version %d, forcing...", dirty.Version)
		if err := m.Force(dirty.Version); err != nil {
			log.Fatal("Failed to force version:", err)
		}
		if err := run(m, *direction, *steps); err != nil {
			log.Fatal(err)
		}
	}

	version, dirtyFlag, _ := m.Version()
	log.Printf("Migration successful, version=%d dirty=%v", version, dirtyFlag)
}

func run(m *migrate.Migrate, direction string, steps int) error {
	var err error
	switch {
	case steps > 0 && direction == "down":
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case direction == "down":
		err = m.Down()
	case direction == "up":
		err = m.Up()
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
