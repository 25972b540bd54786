package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	bucket VARCHAR(64) NOT NULL,
	k      VARCHAR(255) NOT NULL,
	v      MEDIUMBLOB NOT NULL,
	PRIMARY KEY (bucket, k)
)`

// SQLStore keeps buckets in a single MySQL table
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore connects to MySQL and creates the kv table if needed
func NewSQLStore(dsn string) (*SQLStore, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// NormalizeDSN parses a MySQL DSN and forces the options the store relies on
func NormalizeDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	mc.ParseTime = true
	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	if _, ok := mc.Params["charset"]; !ok {
		mc.Params["charset"] = "utf8mb4"
	}
	return mc.FormatDSN(), nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Get retrieves a value from a bucket, nil if the key is absent
func (s *SQLStore) Get(bucket []byte, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow("SELECT v FROM kv WHERE bucket = ? AND k = ?", string(bucket), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

// Set stores a value in a bucket
func (s *SQLStore) Set(bucket []byte, key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (bucket, k, v) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)",
		string(bucket), key, value,
	)
	return err
}

// Delete removes a key from a bucket
func (s *SQLStore) Delete(bucket []byte, key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE bucket = ? AND k = ?", string(bucket), key)
	return err
}

// GetAll retrieves all key-value pairs from a bucket
func (s *SQLStore) GetAll(bucket []byte) (map[string][]byte, error) {
	rows, err := s.db.Query("SELECT k, v FROM kv WHERE bucket = ?", string(bucket))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// Count returns the number of keys in a bucket
func (s *SQLStore) Count(bucket []byte) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM kv WHERE bucket = ?", string(bucket)).Scan(&n)
	return n, err
}
