// Package disk implements the ability to read and write the blockchain to a
// single JSON file on disk.
package disk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/petition/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// the chain as a JSON array in one human readable file. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use. The directory for the file is created
// if it doesn't exist.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since the file is opened
// and closed on every call.
func (d *Disk) Close() error {
	return nil
}

// Load reads the full chain from disk. A missing file is reported with an
// error matching fs.ErrNotExist. A file that can't be decoded is copied aside
// with a ".corrupt" suffix so an operator can investigate it.
func (d *Disk) Load() ([]database.Block, error) {
	data, err := os.ReadFile(d.dbPath)
	if err != nil {
		return nil, err
	}

	var blocks []database.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		if werr := os.WriteFile(d.dbPath+".corrupt", data, 0600); werr != nil {
			return nil, fmt.Errorf("%w: %w, preserving copy: %w", database.ErrCorrupt, err, werr)
		}
		return nil, fmt.Errorf("%w: %w", database.ErrCorrupt, err)
	}

	return blocks, nil
}

// Save writes the full chain to a temporary file in the same directory and
// then renames it over the chain file. A reader either sees the old chain or
// the new one, never a partial write.
func (d *Disk) Save(blocks []database.Block) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(blocks); err != nil {
		return fmt.Errorf("encoding chain: %w", err)
	}

	return WriteFileAtomic(d.dbPath, buf.Bytes())
}

// WriteFileAtomic writes data to a temporary file next to path, flushes it
// to stable storage and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Remove the temporary file on any failure before the rename.
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return fail(err)
	}

	if err := f.Sync(); err != nil {
		return fail(err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Chmod(tmp, 0600); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}
