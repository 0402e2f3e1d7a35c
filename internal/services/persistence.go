package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"todo-apps/internal/models"
	"todo-apps/internal/repositories"
	"todo-apps/internal/todo"
)

// ErrMalformedData は保存されたタスクリストが読み取れない場合のエラーです。
var ErrMalformedData = errors.New("malformed stored task list")

// taskListSchema は保存データ (タスクの配列) のJSON Schemaです。
const taskListSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "task", "timestamp", "isCompleted"],
		"properties": {
			"id": {"type": "integer"},
			"task": {"type": "string"},
			"timestamp": {"type": "string"},
			"isCompleted": {"type": "boolean"}
		}
	}
}`

// Listener はタスクリストの変更通知を受け取ります。
type Listener interface {
	OnListChanged(tasks []models.Task)
}

// ListenerFunc は関数をListenerとして使うためのアダプタです。
type ListenerFunc func(tasks []models.Task)

// OnListChanged はf(tasks)を呼び出します。
func (f ListenerFunc) OnListChanged(tasks []models.Task) { f(tasks) }

// Persistence はタスクリスト全体をKVStoreの1つのキーに保存・復元します。
type Persistence struct {
	kv               repositories.KVStore
	key              string
	recoverMalformed bool
	schema           *jsonschema.Schema

	mu        sync.RWMutex
	listeners []Listener
}

// NewPersistence は新しいPersistenceを作成します。kvがnilならストレージ無しとして扱います。
func NewPersistence(kv repositories.KVStore, key string, recoverMalformed bool) (*Persistence, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tasks.json", strings.NewReader(taskListSchema)); err != nil {
		return nil, fmt.Errorf("failed to add task list schema: %w", err)
	}
	schema, err := compiler.Compile("tasks.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile task list schema: %w", err)
	}
	return &Persistence{
		kv:               kv,
		key:              key,
		recoverMalformed: recoverMalformed,
		schema:           schema,
	}, nil
}

// Subscribe は変更通知の受け取り先を登録します。
func (p *Persistence) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Available はストレージが使えるかを確認します。
func (p *Persistence) Available(ctx context.Context) bool {
	if p.kv == nil {
		return false
	}
	return p.kv.Ping(ctx) == nil
}

// Save はリスト全体を保存し、その後に変更を通知します。
// ストレージが使えない場合は書き込みを省略して ErrStorageUnavailable を返しますが、通知は行います。
func (p *Persistence) Save(ctx context.Context, tasks []models.Task) error {
	defer p.notify(tasks)

	if !p.Available(ctx) {
		return repositories.ErrStorageUnavailable
	}
	data, err := json.Marshal(nonNil(tasks))
	if err != nil {
		return fmt.Errorf("could not encode task list: %w", err)
	}
	if err := p.kv.Set(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", repositories.ErrStorageUnavailable, err)
	}
	return nil
}

// Load は保存済みのリストを読み込んでstoreに反映し、変更を通知します。
// キーが存在しない場合は空のリストとして扱います。
func (p *Persistence) Load(ctx context.Context, store *todo.Store) error {
	tasks, err := p.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := store.Replace(tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	p.notify(store.List())
	return nil
}

// Fetch は保存済みのリストを読み出します。storeへの反映や通知は行いません。
// 読み出しに失敗した場合は ErrStorageUnavailable を返します。
func (p *Persistence) Fetch(ctx context.Context) ([]models.Task, error) {
	if p.kv == nil {
		return nil, repositories.ErrStorageUnavailable
	}
	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, repositories.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: could not read task list: %v", repositories.ErrStorageUnavailable, err)
	}
	if !ok {
		return []models.Task{}, nil
	}

	tasks, err := p.decode(raw)
	if err == nil {
		// IDの重複も壊れたデータとして扱う
		err = todo.NewStore().Replace(tasks)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrMalformedData, err)
		}
	}
	if err != nil {
		if !p.recoverMalformed {
			return nil, err
		}
		log.Warn("Stored task list is malformed, starting with an empty list", "key", p.key, "err", err)
		return []models.Task{}, nil
	}
	return nonNil(tasks), nil
}

func (p *Persistence) decode(raw string) ([]models.Task, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if err := p.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, schemaMessage(err))
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(trimmed), &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return tasks, nil
}

func (p *Persistence) notify(tasks []models.Task) {
	p.mu.RLock()
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.RUnlock()

	snapshot := nonNil(tasks)
	for _, l := range listeners {
		l.OnListChanged(append([]models.Task{}, snapshot...))
	}
}

// schemaMessage はスキーマ検証エラーを1行にまとめます。
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, leaf.Message)
}

func nonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
