package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// MySQLKVStore は kv_store テーブルに保存するKVStoreです。
type MySQLKVStore struct {
	DB *sqlx.DB
}

// NewMySQLKVStore は新しいMySQLKVStoreを作成し、テーブルを用意します。
func NewMySQLKVStore(ctx context.Context, db *sql.DB) (*MySQLKVStore, error) {
	s := &MySQLKVStore{DB: sqlx.NewDb(db, "mysql")}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MySQLKVStore) migrate(ctx context.Context) error {
	createKVTableSQL := `
		CREATE TABLE IF NOT EXISTS kv_store (
			k VARCHAR(191) NOT NULL PRIMARY KEY,
			v LONGTEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);`
	if _, err := s.DB.ExecContext(ctx, createKVTableSQL); err != nil {
		return fmt.Errorf("could not create kv_store table: %w", err)
	}
	return nil
}

func (s *MySQLKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.GetContext(ctx, &value, "SELECT v FROM kv_store WHERE k = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		log.Printf("Failed to query kv_store: %v", err)
		return "", false, fmt.Errorf("could not query key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *MySQLKVStore) Set(ctx context.Context, key, value string) error {
	query := "INSERT INTO kv_store (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)"
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		log.Printf("Failed to write kv_store: %v", err)
		return fmt.Errorf("could not write key %s: %w", key, err)
	}
	return nil
}

func (s *MySQLKVStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MySQLKVStore) Close() error { return s.DB.Close() }
