package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"mercari_watch/internal/storage"
	"mercari_watch/migrations"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  up               Migrate to the latest version")
	fmt.Fprintln(os.Stderr, "  down             Roll back one version")
	fmt.Fprintln(os.Stderr, "  status           Show migration status")
	fmt.Fprintln(os.Stderr, "  version          Show current version")
	fmt.Fprintln(os.Stderr, "  import-log FILE  Copy ids from a found.log into the database")
	fmt.Fprintln(os.Stderr, "  count            Print the number of recorded ids")
}

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/seen.db"), "path to the sqlite dedup database")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	switch cmd {
	case "up", "down", "status", "version":
		if err := runGoose(*dbPath, cmd); err != nil {
			log.Fatalf("%s: %v", cmd, err)
		}
	case "import-log":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		n, err := importLog(context.Background(), *dbPath, args[1])
		if err != nil {
			log.Fatalf("import-log: %v", err)
		}
		fmt.Printf("imported %d ids\n", n)
	case "count":
		n, err := count(context.Background(), *dbPath)
		if err != nil {
			log.Fatalf("count: %v", err)
		}
		fmt.Println(n)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}

func runGoose(dbPath, cmd string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	switch cmd {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	default:
		return goose.Version(db, ".")
	}
}

// importLog records every id of the flat found log in the SQLite store and
// returns how many of them were not already present.
func importLog(ctx context.Context, dbPath, logPath string) (int, error) {
	ids, err := storage.ReadIDs(logPath)
	if err != nil {
		return 0, err
	}

	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	before, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := store.RecordIDs(ctx, ids); err != nil {
		return 0, err
	}
	after, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

func count(ctx context.Context, dbPath string) (int, error) {
	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()
	return store.Count(ctx)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
