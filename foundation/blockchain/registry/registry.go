// Package registry maintains the durable mapping of usernames to the PEM
// encoded public keys used to verify their signatures.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/disk"
)

// ErrEmptyUsername is returned when a key is stored without a username.
var ErrEmptyUsername = errors.New("username is required")

// EventHandler defines a function that is called when events occur while
// loading and saving the registry.
type EventHandler func(v string, args ...any)

// Registry maintains a map of usernames to public keys.
type Registry struct {
	mu        sync.RWMutex
	path      string
	keys      map[string]string
	evHandler EventHandler
}

// New constructs a registry backed by the specified file. A missing file
// starts an empty registry. A file that can't be read or decoded also starts
// an empty registry so the system stays available, this is reported as a
// CORRUPT event. An empty path keeps the registry in memory only.
func New(path string, evHandler EventHandler) *Registry {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	r := Registry{
		path:      path,
		keys:      make(map[string]string),
		evHandler: ev,
	}
	r.load()

	return &r
}

// Get returns the public key registered for the username.
func (r *Registry) Get(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, exists := r.keys[username]
	return key, exists
}

// Put registers the public key for the username, replacing any existing key,
// and writes the registry to disk. If the write fails the previous key is
// kept.
func (r *Registry) Put(username string, publicKeyPEM string) error {
	if username == "" {
		return ErrEmptyUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.keys[username]
	r.keys[username] = publicKeyPEM

	if err := r.save(); err != nil {
		if existed {
			r.keys[username] = prev
		} else {
			delete(r.keys, username)
		}
		return err
	}

	r.evHandler("registry: put: user[%s]: replaced[%v]", username, existed)

	return nil
}

// Copy returns a copy of the map of usernames and keys.
func (r *Registry) Copy() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cpy := make(map[string]string, len(r.keys))
	for username, key := range r.keys {
		cpy[username] = key
	}
	return cpy
}

// Usernames returns the registered usernames in sorted order.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.keys))
	for username := range r.keys {
		names = append(names, username)
	}
	sort.Strings(names)

	return names
}

// =============================================================================

func (r *Registry) load() {
	if r.path == "" {
		return
	}

	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.evHandler("registry: load: INIT: no registry at %s", r.path)
		return

	case err != nil:
		r.evHandler("registry: load: CORRUPT: unable to read %s, starting empty: %s", r.path, err)
		return
	}

	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		r.evHandler("registry: load: CORRUPT: unable to decode %s, starting empty: %s", r.path, err)
		return
	}
	if keys == nil {
		keys = make(map[string]string)
	}

	r.keys = keys
	r.evHandler("registry: load: users[%d]", len(keys))
}

// save writes the registry to disk. The caller must hold the write lock.
func (r *Registry) save() error {
	if r.path == "" {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r.keys); err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}

	if err := disk.WriteFileAtomic(r.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}

	return nil
}
