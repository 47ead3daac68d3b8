package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"shopgen/internal/db"
	"shopgen/internal/infra"
)

func main() {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "migrate").Logger()

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		exitWithError(fmt.Errorf("begin migration: %w", err))
	}
	for i, stmt := range db.Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			exitWithError(fmt.Errorf("statement %d: %w", i+1, err))
		}
	}
	if err := tx.Commit(); err != nil {
		exitWithError(fmt.Errorf("commit migration: %w", err))
	}
	logger.Info().Int("statements", len(db.Statements())).Msg("schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
