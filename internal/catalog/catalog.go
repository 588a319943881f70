// Package catalog keeps a SQLite index of session files so they can be
// listed without decoding each one.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/catalog/migrations"
	"github.com/iksnae/deskcorder/internal/fileio"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one indexed session file.
type Entry struct {
	ID        string
	Path      string
	Format    fileio.Format
	Version   fileio.Version
	Summary   fileio.Summary
	IndexedAt time.Time
}

// Catalog is an open catalog database.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the catalog location under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "deskcorder", "catalog.db"), nil
}

// Open opens or creates the catalog at path and brings its schema up to date.
func Open(ctx context.Context, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog ping failed: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Index records path with the given version and summary. Re-indexing a path
// keeps its id and refreshes everything else.
func (c *Catalog) Index(ctx context.Context, path string, v fileio.Version, s fileio.Summary) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	e := Entry{
		ID:        uuid.NewString(),
		Path:      abs,
		Format:    fileio.FormatFor(abs),
		Version:   v,
		Summary:   s,
		IndexedAt: c.now().UTC().Truncate(time.Millisecond),
	}
	err = c.db.QueryRowContext(ctx, `
INSERT INTO entries (id, path, format, version, duration, events, slides, strokes, points, moves, audio, indexed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (path) DO UPDATE SET
    format = excluded.format,
    version = excluded.version,
    duration = excluded.duration,
    events = excluded.events,
    slides = excluded.slides,
    strokes = excluded.strokes,
    points = excluded.points,
    moves = excluded.moves,
    audio = excluded.audio,
    indexed_at = excluded.indexed_at
RETURNING id`,
		e.ID, e.Path, string(e.Format), v.String(), s.Duration,
		s.Events, s.Slides, s.Strokes, s.Points, s.Moves, s.Audio,
		e.IndexedAt.UnixMilli(),
	).Scan(&e.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to index %s: %w", abs, err)
	}
	internal.LogDebug("indexed %s as %s", abs, e.ID)
	return e, nil
}

// IndexFile loads path and indexes what it holds.
func (c *Catalog) IndexFile(ctx context.Context, path string, opts fileio.Options) (Entry, error) {
	l, v, err := fileio.Load(ctx, path, opts)
	if err != nil {
		return Entry{}, err
	}
	return c.Index(ctx, path, v, fileio.Summarize(l))
}

const selectEntries = `SELECT id, path, format, version, duration, events, slides, strokes, points, moves, audio, indexed_at FROM entries`

// List returns every entry ordered by path.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, selectEntries+` ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// Get returns the entry with id.
func (c *Catalog) Get(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(c.db.QueryRowContext(ctx, selectEntries+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Remove deletes the entry with id.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Prune removes entries whose files no longer exist and returns them.
func (c *Catalog) Prune(ctx context.Context) ([]Entry, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	var gone []Entry
	for _, e := range entries {
		if _, err := os.Stat(e.Path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := c.Remove(ctx, e.ID); err != nil {
			return gone, err
		}
		gone = append(gone, e)
	}
	return gone, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		format    string
		version   string
		indexedAt int64
	)
	err := row.Scan(&e.ID, &e.Path, &format, &version, &e.Summary.Duration,
		&e.Summary.Events, &e.Summary.Slides, &e.Summary.Strokes, &e.Summary.Points,
		&e.Summary.Moves, &e.Summary.Audio, &indexedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan failed: %w", err)
	}
	e.Format = fileio.Format(format)
	if e.Version, err = fileio.ParseVersion(version); err != nil {
		return Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.IndexedAt = time.UnixMilli(indexedAt).UTC()
	return e, nil
}
