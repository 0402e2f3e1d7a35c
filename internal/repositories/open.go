package repositories

import (
	"context"
	"fmt"

	"todo-apps/internal/config"
	"todo-apps/internal/database"
)

// Open は設定されたバックエンドのKVStoreを開きます。
// STORAGE_BACKEND=none の場合は (nil, nil) を返し、永続化なしで動作します。
func Open(ctx context.Context, cfg *config.Config) (KVStore, error) {
	switch cfg.StorageBackend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return NewMemoryKVStore(), nil
	case config.BackendFile:
		return NewFileKVStore(cfg.StoreFile)
	case config.BackendMySQL:
		db, err := database.InitDB(cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		store, err := NewMySQLKVStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	case config.BackendNeo4j:
		driver, err := database.InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return NewNeo4jKVStore(driver, cfg.Neo4j.Database), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
