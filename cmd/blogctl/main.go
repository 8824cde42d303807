// Command blogctl is the operator CLI for the blog.
//
// The website has no admin pages. Groups are created and removed here, and
// so are accounts that have to go. blogctl talks to the same SQLite file as
// the server and goes through the same services, so the rules (slug format,
// cascades on delete) are identical in both places.
//
//	blogctl migrate
//	blogctl group create --title "Cats" --slug cats
//	blogctl group list
//	blogctl post list --search hello
//	blogctl user delete spammer
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
)

// dbPath is set by the --db flag on every command.
var dbPath string

var rootCmd = &cobra.Command{
	Use:           "blogctl",
	Short:         "Operator tasks for the blog: groups, posts, users, migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dbPath != "" {
			return nil
		}
		// Same .env the server reads, so DB_PATH only has to be set once.
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		dbPath = os.Getenv("DB_PATH")
		if dbPath == "" {
			dbPath = "data/blog.db"
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default $DB_PATH or data/blog.db)")
	rootCmd.AddCommand(migrateCmd, groupCmd, postCmd, userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail("%v", err)
	}
}

// openDB opens (and migrates) the database named by --db.
func openDB() (*sqliteRepo.DB, error) {
	db, err := sqliteRepo.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	return db, nil
}

// newLogger keeps service logs on stderr, out of the way of the tables.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func success(format string, args ...any) {
	fmt.Fprintln(os.Stdout, color.New(color.FgGreen, color.Bold).Sprintf("✓ "+format, args...))
}

func fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprintf("Error: "+format, args...))
	os.Exit(1)
}
