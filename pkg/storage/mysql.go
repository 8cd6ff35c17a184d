package storage

import (
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store using a MySQL backend. The DSN must enable
// parseTime (e.g. "user:pass@tcp(host:3306)/shareadmin?parseTime=true").
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore creates a new MySQL-backed store for dsn.
func NewMySQLStore(dsn string) (Store, error) {
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	store := &MySQLStore{sqlStore{db: db}}
	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// initDB initializes the database schema
func (s *MySQLStore) initDB() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255),
			role VARCHAR(32) DEFAULT 'user',
			password_hash VARCHAR(255) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			owner_id VARCHAR(64),
			shared BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			device_id VARCHAR(128) NOT NULL,
			device_name VARCHAR(255),
			platform VARCHAR(64),
			token_hash VARCHAR(64) NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_user_device (user_id, device_id)
		)`,
		"CREATE TABLE IF NOT EXISTS settings (" +
			"`key` VARCHAR(128) PRIMARY KEY, " +
			"value TEXT, " +
			"updated_at DATETIME DEFAULT CURRENT_TIMESTAMP)",
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
