package storage

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/thoughts/internal/recordstore"
)

// handleIndex maps public IDs of one entity kind to record store handles.
// The whole map is one record in the ids collection and every mutation
// rewrites it.
type handleIndex struct {
	store recordstore.Store
	key   string
}

// load returns the persisted map. A never-written index is empty.
func (ix handleIndex) load() (map[string]string, error) {
	entries := make(map[string]string)
	err := ix.store.Get(ix.key, &entries)
	if errors.Is(err, recordstore.ErrNotFound) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", ix.key, err)
	}
	if entries == nil {
		// A stored JSON null decodes to a nil map.
		entries = make(map[string]string)
	}
	return entries, nil
}

func (ix handleIndex) save(entries map[string]string) error {
	if _, err := ix.store.SaveWithID(entries, ix.key); err != nil {
		return fmt.Errorf("writing index %s: %w", ix.key, err)
	}
	return nil
}

// lookup returns the handle for id.
// Returns recordstore.ErrNotFound if the index has no entry for id.
func (ix handleIndex) lookup(id uint64) (string, error) {
	entries, err := ix.load()
	if err != nil {
		return "", err
	}
	handle, ok := entries[strconv.FormatUint(id, 10)]
	if !ok {
		return "", recordstore.ErrNotFound
	}
	return handle, nil
}

// put records id -> handle.
func (ix handleIndex) put(id uint64, handle string) error {
	entries, err := ix.load()
	if err != nil {
		return err
	}
	entries[strconv.FormatUint(id, 10)] = handle
	return ix.save(entries)
}

// remove drops the entry for id. Removing an absent entry is a no-op.
func (ix handleIndex) remove(id uint64) error {
	entries, err := ix.load()
	if err != nil {
		return err
	}
	key := strconv.FormatUint(id, 10)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return ix.save(entries)
}
