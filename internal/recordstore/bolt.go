package recordstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/boltdb/bolt"
)

// boltFileName is the database file inside the data directory.
const boltFileName = "records.bolt"

// boltBackend keeps each collection in its own bucket. New handles come from
// the bucket sequence.
type boltBackend struct {
	mu sync.Mutex
	db *bolt.DB
}

func openBoltBackend(dir string) (*boltBackend, error) {
	db, err := bolt.Open(filepath.Join(dir, boltFileName), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt: %w", err)
	}
	return &boltBackend{db: db}, nil
}

func (b *boltBackend) Collection(name string) (Store, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty collection name", ErrInvalidHandle)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil, ErrClosed
	}
	bucket := []byte(name)
	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return &boltStore{db: b.db, bucket: bucket}, nil
}

// Close is idempotent.
func (b *boltBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type boltStore struct {
	db     *bolt.DB
	bucket []byte
}

func (s *boltStore) Save(v any) (string, error) {
	body, err := encode(v)
	if err != nil {
		return "", err
	}
	var handle string
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		handle = strconv.FormatUint(seq, 10)
		return bucket.Put([]byte(handle), body)
	})
	if err != nil {
		return "", fmt.Errorf("writing %s record: %w", s.bucket, err)
	}
	return handle, nil
}

func (s *boltStore) SaveWithID(v any, handle string) (string, error) {
	if handle == "" {
		return "", ErrInvalidHandle
	}
	body, err := encode(v)
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(handle), body)
	})
	if err != nil {
		return "", fmt.Errorf("writing %s record %s: %w", s.bucket, handle, err)
	}
	return handle, nil
}

func (s *boltStore) Get(handle string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		body := tx.Bucket(s.bucket).Get([]byte(handle))
		if body == nil {
			return ErrNotFound
		}
		// body is only valid inside the transaction.
		return decode(handle, body, v)
	})
}

func (s *boltStore) All() (map[string]json.RawMessage, error) {
	records := make(map[string]json.RawMessage)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			body := make([]byte, len(v))
			copy(body, v)
			records[string(k)] = body
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.bucket, err)
	}
	return records, nil
}

func (s *boltStore) Delete(handle string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		key := []byte(handle)
		if bucket.Get(key) == nil {
			return ErrNotFound
		}
		return bucket.Delete(key)
	})
}
