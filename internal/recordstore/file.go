package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileBackend keeps each collection in <dir>/<name>.json as a single
// pretty-printed JSON object mapping handle to record.
type fileBackend struct {
	dir string

	mu          sync.Mutex
	closed      bool
	collections map[string]*fileStore
}

func newFileBackend(dir string) *fileBackend {
	return &fileBackend{
		dir:         dir,
		collections: make(map[string]*fileStore),
	}
}

// Collection returns the store for name. Repeated calls return the same
// store so that its lock covers every user of the file.
func (b *fileBackend) Collection(name string) (Store, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty collection name", ErrInvalidHandle)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	s, ok := b.collections[name]
	if !ok {
		s = &fileStore{path: filepath.Join(b.dir, name+".json")}
		b.collections[name] = s
	}
	return s, nil
}

// Close marks the backend closed. Files are opened per operation, so there
// is nothing else to release.
func (b *fileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// fileStore implements Store over one JSON file. Every operation reads the
// whole file; every mutation rewrites it atomically.
type fileStore struct {
	mu   sync.RWMutex
	path string
}

func (s *fileStore) Save(v any) (string, error) {
	return s.put(newHandle(), v)
}

func (s *fileStore) SaveWithID(v any, handle string) (string, error) {
	if handle == "" {
		return "", ErrInvalidHandle
	}
	return s.put(handle, v)
}

func (s *fileStore) put(handle string, v any) (string, error) {
	body, err := encode(v)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return "", err
	}
	records[handle] = body
	if err := s.persist(records); err != nil {
		return "", err
	}
	return handle, nil
}

func (s *fileStore) Get(handle string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	body, ok := records[handle]
	if !ok {
		return ErrNotFound
	}
	return decode(handle, body, v)
}

func (s *fileStore) All() (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

func (s *fileStore) Delete(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[handle]; !ok {
		return ErrNotFound
	}
	delete(records, handle)
	return s.persist(records)
}

// load reads the collection file. A missing file is an empty collection;
// an unparseable file is an error.
func (s *fileStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	records := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return records, nil
}

func (s *fileStore) persist(records map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// writeFileAtomic replaces path with data using the temp-file, fsync,
// rename pattern so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
