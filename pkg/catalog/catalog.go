package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/layoutfile"
	"github.com/inputkit/layoutc/pkg/registry"
)

// Entry is one stored layout.
type Entry struct {
	Name      string
	Extends   string
	Body      []byte
	Seq       int64
	UpdatedAt time.Time
}

// Description parses the stored text.
func (e Entry) Description() (*layout.Description, error) {
	d, err := layoutfile.Parse(e.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog entry %s: %w", e.Name, err)
	}
	return d, nil
}

// Catalog is a SQLite-backed layout store.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at path and migrates its schema.
func Open(path string) (*Catalog, error) {
	if err := runMigrations(path); err != nil {
		return nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Save stores desc in canonical form, replacing any layout of the same
// name. The entry gets the next sequence number.
func (c *Catalog) Save(ctx context.Context, desc *layout.Description) error {
	body, err := layoutfile.Marshal(desc)
	if err != nil {
		return err
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM layouts`).Scan(&seq); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO layouts(name, extends, body, seq, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
		 name=excluded.name,
		 extends=excluded.extends,
		 body=excluded.body,
		 seq=excluded.seq,
		 updated_at=CURRENT_TIMESTAMP;
		`, desc.Name, desc.Extends, string(body), seq)
		return err
	})
}

// Delete removes the named layout. Deleting a missing layout is not an error.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM layouts WHERE name = ?`, name)
	return err
}

// Get returns the named layout.
func (c *Catalog) Get(ctx context.Context, name string) (*layout.Description, error) {
	var e Entry
	err := c.db.QueryRowContext(ctx, `SELECT name, body FROM layouts WHERE name = ?`, name).Scan(&e.Name, &e.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.UnknownLayoutError(name, nil)
	}
	if err != nil {
		return nil, err
	}
	return e.Description()
}

// List returns every stored layout in sequence order.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, extends, body, seq, updated_at FROM layouts ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Extends, &e.Body, &e.Seq, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadInto registers every stored layout with reg in sequence order and
// returns how many were registered.
func (c *Catalog) LoadInto(ctx context.Context, reg *registry.Registry) (int, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		d, err := e.Description()
		if err != nil {
			return i, err
		}
		if err := reg.Register(d); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

func (c *Catalog) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
