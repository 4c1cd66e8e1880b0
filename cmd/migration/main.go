// Command migration manages the Postgres schema with golang-migrate. It
// reads DB_URL and applies the SQL files under db/migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsDir = "db/migrations"

var errUsage = errors.New("bad usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("migration: ")

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migration", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dir := fs.String("dir", "", "migrations directory (default: $MIGRATIONS_DIR, then db/migrations)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	dsn := strings.TrimSpace(os.Getenv("DB_URL"))
	if dsn == "" {
		return errors.New("DB_URL is required")
	}

	source, err := migrationSource(*dir)
	if err != nil {
		return err
	}

	m, err := migrate.New(source, withPoolerFlag(dsn))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Printf("close source: %v", srcErr)
		}
		if dbErr != nil {
			log.Printf("close db: %v", dbErr)
		}
	}()

	return dispatch(m, fs.Arg(0), fs.Args()[1:])
}

func dispatch(m *migrate.Migrate, command string, args []string) error {
	switch strings.ToLower(command) {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return err
		}
		log.Print("schema is up to date")

	case "down":
		steps, err := stepCount(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-steps)); err != nil {
			return err
		}
		log.Printf("rolled back %d migration(s)", steps)

	case "goto":
		target, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Migrate(target)); err != nil {
			return err
		}
		log.Printf("schema at version %d", target)

	case "force":
		// Clears a dirty flag left by a failed migration. The version is
		// recorded as-is without running anything.
		target, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(int(target)); err != nil {
			return err
		}
		log.Printf("forced version to %d", target)

	case "version":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			fmt.Println("no migrations applied")
		case err != nil:
			return fmt.Errorf("read version: %w", err)
		default:
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}

	default:
		return errUsage
	}

	return nil
}

func stepCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("down wants a positive step count, got %q", args[0])
	}
	return n, nil
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, errors.New("a target version is required")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q", args[0])
	}
	return uint(v), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Print("nothing to do")
		return nil
	}
	return err
}

// migrationSource resolves the migrations directory into a file:// source
// URL. The -dir flag beats MIGRATIONS_DIR, which beats the repo-relative
// default and the container path.
func migrationSource(flagDir string) (string, error) {
	candidates := []string{flagDir, os.Getenv("MIGRATIONS_DIR"), defaultMigrationsDir, "/app/" + defaultMigrationsDir}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			return "file://" + filepath.ToSlash(abs), nil
		}
	}
	return "", errors.New("no migrations directory found; pass -dir or set MIGRATIONS_DIR")
}

// withPoolerFlag mirrors the API server's disable_prepared_binary_result
// handling so migrations work through the same connection pooler.
func withPoolerFlag(dsn string) string {
	switch strings.TrimSpace(strings.ToLower(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT"))) {
	case "1", "true", "t", "yes", "y", "on":
	default:
		return dsn
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	query := parsed.Query()
	if !query.Has("disable_prepared_binary_result") {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func usage() {
	program := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `usage: %s [-dir path] <command> [args]

commands:
  up             apply all pending migrations
  down [n]       roll back n migrations (default 1)
  goto <v>       migrate up or down to version v
  force <v>      mark version v without running migrations
  version        print the current schema version
`, program)
}
