package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mudgraph/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

const openTimeout = 30 * time.Second

// pragmas tune the index for one writer and many short reads. WAL lets
// queries run while a watch rebuild is writing.
var pragmas = []string{
	"PRAGMA busy_timeout = 30000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
}

type Client struct {
	db *sql.DB
}

// New opens the index at dsn, creating the parent directory of a file
// database when needed.
func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, path, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps :memory: databases on a single handle.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("setting %q: %w", pragma, err)
		}
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
