package recordstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// sqliteFileName is the database file inside the data directory.
const sqliteFileName = "records.db"

// sqliteBackend keeps each collection in its own table of (handle, body)
// rows inside one database file.
type sqliteBackend struct {
	db *sql.DB

	mu          sync.Mutex
	collections map[string]*sqliteStore
}

func openSQLiteBackend(dir string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return &sqliteBackend{
		db:          db,
		collections: make(map[string]*sqliteStore),
	}, nil
}

func (b *sqliteBackend) Collection(name string) (Store, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty collection name", ErrInvalidHandle)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil, ErrClosed
	}
	if s, ok := b.collections[name]; ok {
		return s, nil
	}

	table := quoteIdent(name)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    handle TEXT PRIMARY KEY,
    body TEXT NOT NULL
);`, table)
	if _, err := b.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}

	s := &sqliteStore{db: b.db, table: table}
	b.collections[name] = s
	return s, nil
}

// Close is idempotent.
func (b *sqliteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	b.collections = make(map[string]*sqliteStore)
	return err
}

// quoteIdent quotes a collection name for use as a table identifier.
// Collection names contain dashes, so they always need quoting.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type sqliteStore struct {
	db    *sql.DB
	table string
}

func (s *sqliteStore) Save(v any) (string, error) {
	return s.put(newHandle(), v)
}

func (s *sqliteStore) SaveWithID(v any, handle string) (string, error) {
	if handle == "" {
		return "", ErrInvalidHandle
	}
	return s.put(handle, v)
}

func (s *sqliteStore) put(handle string, v any) (string, error) {
	body, err := encode(v)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		"INSERT INTO "+s.table+" (handle, body) VALUES (?, ?) "+
			"ON CONFLICT(handle) DO UPDATE SET body = excluded.body",
		handle, string(body))
	if err != nil {
		return "", fmt.Errorf("writing %s record %s: %w", s.table, handle, err)
	}
	return handle, nil
}

func (s *sqliteStore) Get(handle string, v any) error {
	var body string
	err := s.db.QueryRow("SELECT body FROM "+s.table+" WHERE handle = ?", handle).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s record %s: %w", s.table, handle, err)
	}
	return decode(handle, []byte(body), v)
}

func (s *sqliteStore) All() (map[string]json.RawMessage, error) {
	rows, err := s.db.Query("SELECT handle, body FROM " + s.table)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	records := make(map[string]json.RawMessage)
	for rows.Next() {
		var handle, body string
		if err := rows.Scan(&handle, &body); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.table, err)
		}
		records[handle] = json.RawMessage(body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", s.table, err)
	}
	return records, nil
}

func (s *sqliteStore) Delete(handle string) error {
	res, err := s.db.Exec("DELETE FROM "+s.table+" WHERE handle = ?", handle)
	if err != nil {
		return fmt.Errorf("deleting %s record %s: %w", s.table, handle, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s record %s: %w", s.table, handle, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
