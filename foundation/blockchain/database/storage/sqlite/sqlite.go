// Package sqlite implements the ability to read and write the blockchain to
// a SQLite database. Every save replaces the stored chain inside a single
// transaction.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
	_ "modernc.org/sqlite" // SQLite driver registration
)

// SQLite represents the serialization implementation for reading and storing
// blocks in a SQLite table. This implements the database.Storage interface.
type SQLite struct {
	db *sql.DB
}

// New opens or creates the SQLite database at the specified path.
func New(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The chain has a single writer, one connection keeps SQLite from
	// reporting busy errors between our own connections.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
			idx  INTEGER PRIMARY KEY,
			hash TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks_corrupt (
			saved_at TEXT NOT NULL,
			idx      INTEGER NOT NULL,
			hash     TEXT NOT NULL,
			data     TEXT NOT NULL
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads every block in index order. An empty table returns an empty
// chain. When a row can't be decoded, the stored rows are copied into the
// blocks_corrupt table so an operator can investigate them.
func (s *SQLite) Load() ([]database.Block, error) {
	type row struct {
		idx  uint64
		data string
	}

	rows, err := s.db.Query(`SELECT idx, data FROM blocks ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}

	var stored []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.idx, &r.data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		stored = append(stored, r)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	blocks := make([]database.Block, 0, len(stored))
	for _, r := range stored {
		var block database.Block
		if err := json.Unmarshal([]byte(r.data), &block); err != nil {
			if perr := s.preserve(); perr != nil {
				return nil, fmt.Errorf("%w: row %d: %w, preserving copy: %w", database.ErrCorrupt, r.idx, err, perr)
			}
			return nil, fmt.Errorf("%w: row %d: %w", database.ErrCorrupt, r.idx, err)
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// preserve copies the stored rows into the blocks_corrupt table.
func (s *SQLite) preserve() error {
	const q = `INSERT INTO blocks_corrupt (saved_at, idx, hash, data) SELECT ?, idx, hash, data FROM blocks`

	if _, err := s.db.Exec(q, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("copying corrupt blocks: %w", err)
	}

	return nil
}

// Save replaces the stored chain with the specified chain in one transaction.
func (s *SQLite) Save(blocks []database.Block) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM blocks`); err != nil {
		return fmt.Errorf("clearing blocks: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO blocks (idx, hash, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, block := range blocks {
		data, err := json.Marshal(block)
		if err != nil {
			return fmt.Errorf("encoding block %d: %w", block.Index, err)
		}

		if _, err := stmt.Exec(block.Index, block.Hash, string(data)); err != nil {
			return fmt.Errorf("inserting block %d: %w", block.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
