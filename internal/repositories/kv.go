// Package repositories はタスクリストを保存するキー・バリューストアを提供します。
package repositories

import (
	"context"
	"errors"
)

var (
	// ErrStorageUnavailable は永続ストアが使えない場合のエラーです。
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// KVStore は文字列キーで文字列値を保存する外部ストアです。
// Getはキーが無い場合に ("", false, nil) を返します。
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}
