package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kizuna-net/kizuna/identity"
)

// Database is a file-backed Store. The whole table lives in memory under a
// readers-writer lock and is flushed to a JSON file on every mutation; the
// flush is atomic via a temporary file and rename.
type Database struct {
	mu      sync.RWMutex
	path    string
	entries map[identity.PeerID]Entry
}

// NewDatabase opens or creates a trust database at path.
func NewDatabase(path string) (*Database, error) {
	db := &Database{
		path:    path,
		entries: make(map[identity.PeerID]Entry),
	}

	if err := db.load(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) load() error {
	data, err := os.ReadFile(db.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newTrustError("open database", fmt.Errorf("%w: %v", ErrDatabase, err))
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return newTrustError("open database",
			fmt.Errorf("%w: malformed database file: %v", ErrDatabase, err))
	}

	for _, entry := range entries {
		db.entries[entry.PeerID] = entry
	}
	return nil
}

// flush writes the table to disk. Callers must hold the write lock.
func (db *Database) flush() error {
	entries := make([]Entry, 0, len(db.entries))
	for _, entry := range db.entries {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrDatabase, err)
	}

	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: create directory: %v", ErrDatabase, err)
		}
	}

	tmpPath := db.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("%w: write: %v", ErrDatabase, err)
	}
	if err := os.Rename(tmpPath, db.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrDatabase, err)
	}
	return nil
}

// AddPeer inserts or replaces a trust entry.
func (db *Database) AddPeer(entry Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.entries[entry.PeerID] = entry
	if err := db.flush(); err != nil {
		delete(db.entries, entry.PeerID)
		return newTrustError("add peer", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "AddPeer",
		"peer_id":     entry.PeerID.DisplayName(),
		"trust_level": string(entry.Level),
	}).Info("Added trusted peer")

	return nil
}

// RemovePeer deletes a peer's entry. Removing an unknown peer is a no-op.
func (db *Database) RemovePeer(peerID identity.PeerID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	previous, existed := db.entries[peerID]
	if !existed {
		return nil
	}

	delete(db.entries, peerID)
	if err := db.flush(); err != nil {
		db.entries[peerID] = previous
		return newTrustError("remove peer", err)
	}
	return nil
}

// GetPeer returns a peer's entry.
func (db *Database) GetPeer(peerID identity.PeerID) (Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entry, ok := db.entries[peerID]
	if !ok {
		return Entry{}, newTrustError("get peer",
			fmt.Errorf("%w: %s", ErrPeerNotFound, peerID.DisplayName()))
	}
	return entry, nil
}

// IsTrusted reports whether the peer has any trust entry.
func (db *Database) IsTrusted(peerID identity.PeerID) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, ok := db.entries[peerID]
	return ok
}

// AllPeers returns every trust entry.
func (db *Database) AllPeers() ([]Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entries := make([]Entry, 0, len(db.entries))
	for _, entry := range db.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateLastSeen stamps a peer's last-seen time with now.
func (db *Database) UpdateLastSeen(peerID identity.PeerID) error {
	return db.update("update last seen", peerID, func(entry *Entry) {
		entry.LastSeen = uint64(time.Now().Unix())
	})
}

// UpdatePermissions replaces a peer's service permissions.
func (db *Database) UpdatePermissions(peerID identity.PeerID, permissions Permissions) error {
	return db.update("update permissions", peerID, func(entry *Entry) {
		entry.Permissions = permissions
	})
}

// UpdateLevel replaces a peer's trust level.
func (db *Database) UpdateLevel(peerID identity.PeerID, level Level) error {
	return db.update("update trust level", peerID, func(entry *Entry) {
		entry.Level = level
	})
}

func (db *Database) update(op string, peerID identity.PeerID, mutate func(*Entry)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.entries[peerID]
	if !ok {
		return newTrustError(op, fmt.Errorf("%w: %s", ErrPeerNotFound, peerID.DisplayName()))
	}

	previous := entry
	mutate(&entry)
	db.entries[peerID] = entry

	if err := db.flush(); err != nil {
		db.entries[peerID] = previous
		return newTrustError(op, err)
	}
	return nil
}

var _ Store = (*Database)(nil)
