// Package cache holds the in-memory client-file tree.
//
// Every published State is immutable. Writers build a new State by copying
// only the nodes on the path from the root to the node they change, so
// untouched subtrees stay pointer-identical between revisions and readers can
// compare nodes with == to detect change.
package cache

import (
	"sync"

	"clientfiles/internal/model"
)

// State is one immutable revision of the cache.
type State struct {
	Files      []*model.ClientFile
	Templates  []*model.Template
	Activities []*model.ActivityEntry
	// FolderFilesLoaded is false until the batched folder-file query of the
	// current load has been merged in; counts shown before then are provisional.
	FolderFilesLoaded bool
}

// Cache is safe for concurrent use. Writes are serialized and each one
// publishes a whole new State.
type Cache struct {
	mu      sync.RWMutex
	state   *State
	version uint64
}

func New() *Cache {
	return &Cache{state: &State{}}
}

// Snapshot returns the current revision. Callers must not modify it.
func (c *Cache) Snapshot() *State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Version counts published revisions.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Checkpoint returns the current revision with its version.
func (c *Cache) Checkpoint() (*State, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.version
}

// Replace publishes s wholesale.
func (c *Cache) Replace(s *State) {
	if s == nil {
		s = &State{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.version++
}

// RestoreIf publishes s only when no other write happened since version.
func (c *Cache) RestoreIf(version uint64, s *State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		return false
	}
	c.state = s
	c.version++
	return true
}

// Reset drops everything.
func (c *Cache) Reset() {
	c.Replace(&State{})
}

// SetFolderFilesLoaded flips the provisional-count flag.
func (c *Cache) SetFolderFilesLoaded(loaded bool) {
	c.update(func(s *State) bool {
		if s.FolderFilesLoaded == loaded {
			return false
		}
		s.FolderFilesLoaded = loaded
		return true
	})
}

// update runs fn on a shallow copy of the current state and publishes it
// when fn reports a change.
func (c *Cache) update(fn func(s *State) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.state
	if !fn(&next) {
		return false
	}
	c.state = &next
	c.version++
	return true
}
