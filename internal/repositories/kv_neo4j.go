package repositories

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jKVStore は (:KV {key, value}) ノードに保存するKVStoreです。
type Neo4jKVStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jKVStore は新しいNeo4jKVStoreを作成します。databaseが空ならデフォルトDBを使います。
func NewNeo4jKVStore(driver neo4j.DriverWithContext, database string) *Neo4jKVStore {
	return &Neo4jKVStore{driver: driver, database: database}
}

func (s *Neo4jKVStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	value, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (k:KV {key: $key}) RETURN k.value AS value", map[string]any{"key": key})
		if err != nil {
			return nil, err
		}
		if result.Next(ctx) {
			v, _ := result.Record().Get("value")
			return v, nil
		}
		return nil, result.Err()
	})
	if err != nil {
		log.Printf("Failed to read key from neo4j: %v", err)
		return "", false, fmt.Errorf("could not read key %s: %w", key, err)
	}
	if value == nil {
		return "", false, nil
	}
	str, ok := value.(string)
	if !ok {
		return "", false, fmt.Errorf("value for key %s is %T, not string", key, value)
	}
	return str, true, nil
}

func (s *Neo4jKVStore) Set(ctx context.Context, key, value string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MERGE (k:KV {key: $key}) SET k.value = $value, k.updated_at = datetime()",
			map[string]any{"key": key, "value": value},
		)
		return nil, err
	})
	if err != nil {
		log.Printf("Failed to write key to neo4j: %v", err)
		return fmt.Errorf("could not write key %s: %w", key, err)
	}
	return nil
}

func (s *Neo4jKVStore) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Neo4jKVStore) Close() error {
	return s.driver.Close(context.Background())
}
