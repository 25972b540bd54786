package storage

import (
	"encoding/json"
	"fmt"

	"github.com/pngcrypt-go/internal/config"
)

// Backend is a bucketed key-value store
type Backend interface {
	Get(bucket []byte, key string) ([]byte, error)
	Set(bucket []byte, key string, value []byte) error
	Delete(bucket []byte, key string) error
	GetAll(bucket []byte) (map[string][]byte, error)
	Count(bucket []byte) (int, error)
	Close() error
}

// Open opens the backend selected by the storage configuration
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Driver {
	case "bolt", "":
		return NewStore(cfg.DataDir)
	case "mysql":
		return NewSQLStore(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// GetJSON retrieves and unmarshals a JSON value. A missing key leaves v
// untouched and returns found == false.
func GetJSON(b Backend, bucket []byte, key string, v interface{}) (bool, error) {
	data, err := b.Get(bucket, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// SetJSON marshals and stores a JSON value
func SetJSON(b Backend, bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Set(bucket, key, data)
}
