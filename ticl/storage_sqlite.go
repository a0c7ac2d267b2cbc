package ticl

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage is a Storage delegate backed by a single-table sqlite
// database. Completions are invoked on a worker goroutine per call.
type SqliteStorage struct {
	db *sql.DB
}

func OpenSqliteStorage(path string) (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL allows concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ticl_state (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &SqliteStorage{
		db: db,
	}, nil
}

func (self *SqliteStorage) WriteKey(key string, value []byte, done func(err error)) {
	go func() {
		_, err := self.db.Exec(
			`INSERT INTO ticl_state (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key,
			value,
		)
		done(err)
	}()
}

func (self *SqliteStorage) ReadKey(key string, done func(value []byte, err error)) {
	go func() {
		var value []byte
		err := self.db.QueryRow(
			`SELECT value FROM ticl_state WHERE key = ?`,
			key,
		).Scan(&value)
		if err == sql.ErrNoRows {
			done(nil, fmt.Errorf("No such key %q.", key))
			return
		}
		done(value, err)
	}()
}

func (self *SqliteStorage) DeleteKey(key string, done func(err error)) {
	go func() {
		_, err := self.db.Exec(`DELETE FROM ticl_state WHERE key = ?`, key)
		done(err)
	}()
}

func (self *SqliteStorage) ReadAllKeys(done func(keys []string, err error)) {
	go func() {
		rows, err := self.db.Query(`SELECT key FROM ticl_state ORDER BY key`)
		if err != nil {
			done(nil, err)
			return
		}
		defer rows.Close()

		keys := []string{}
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				done(nil, err)
				return
			}
			keys = append(keys, key)
		}
		done(keys, rows.Err())
	}()
}

func (self *SqliteStorage) Close() error {
	return self.db.Close()
}
