package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

var ErrNoSnapshot = errors.New("no cached snapshot")

// Snapshot describes a stored copy of the raw feed
type Snapshot struct {
	ID        int64     `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
	Size      int       `json:"size"`
	Keys      []string  `json:"keys"`
}

// Cache persists raw feed snapshots in a sqlite database
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  id         INTEGER PRIMARY KEY,
  fetched_at INTEGER NOT NULL,
  source     TEXT NOT NULL,
  keys       TEXT NOT NULL,
  payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON snapshots(fetched_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Store saves the document as a new snapshot and returns its id
func (c *Cache) Store(ctx context.Context, doc *Document, fetchedAt time.Time, source string) (int64, error) {
	keys, err := json.Marshal(doc.Keys())
	if err != nil {
		return 0, fmt.Errorf("unable to encode series keys, %w", err)
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshots(fetched_at, source, keys, payload) VALUES(?,?,?,?)`,
		fetchedAt.UTC().Unix(), source, string(keys), doc.Raw(),
	)
	if err != nil {
		return 0, fmt.Errorf("unable to store snapshot, %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recently fetched snapshot and its document
func (c *Cache) Latest(ctx context.Context) (*Snapshot, *Document, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, source, keys, payload FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT 1`,
	)

	var (
		snap    Snapshot
		unix    int64
		keys    string
		payload []byte
	)
	if err := row.Scan(&snap.ID, &unix, &snap.Source, &keys, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNoSnapshot
		}
		return nil, nil, fmt.Errorf("unable to load latest snapshot, %w", err)
	}
	if err := json.Unmarshal([]byte(keys), &snap.Keys); err != nil {
		return nil, nil, fmt.Errorf("unable to decode series keys, %w", err)
	}
	snap.FetchedAt = time.Unix(unix, 0).UTC()
	snap.Size = len(payload)

	doc, err := Parse(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %d, %w", snap.ID, err)
	}
	return &snap, doc, nil
}

// List returns up to limit snapshots newest first without their payloads
func (c *Cache) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, fetched_at, source, keys, length(payload) FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to list snapshots, %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap Snapshot
			unix int64
			keys string
		)
		if err := rows.Scan(&snap.ID, &unix, &snap.Source, &keys, &snap.Size); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(keys), &snap.Keys); err != nil {
			return nil, fmt.Errorf("unable to decode series keys of snapshot %d, %w", snap.ID, err)
		}
		snap.FetchedAt = time.Unix(unix, 0).UTC()
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Prune deletes all but the keep most recent snapshots
func (c *Cache) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("unable to prune snapshots, %w", err)
	}
	return res.RowsAffected()
}
