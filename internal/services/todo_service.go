package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"todo-apps/internal/models"
	"todo-apps/internal/repositories"
	"todo-apps/internal/todo"
)

// StorageWarningMessage はストレージが使えないときに利用者へ表示するメッセージです。
const StorageWarningMessage = "Storage is not available: changes will only last for this session."

// ErrMissingField はタイトルまたは期日が空の場合のエラーです。
var ErrMissingField = errors.New("title and date are required")

// TodoService はタスク操作 (追加・完了・取り消し・削除) を扱います。
// 変更→保存→通知の一連の処理はmuで直列化されます。
type TodoService struct {
	mu          sync.Mutex
	store       *todo.Store
	persistence *Persistence
	ids         *todo.IDGenerator
	// loaded は保存済みのリストを一度でも読み込めたかを表します。
	// falseの間は保存前に読み込みと統合を行い、保存済みのタスクを上書きしないようにします。
	loaded bool

	warnMu  sync.RWMutex
	warning string
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(store *todo.Store, persistence *Persistence, ids *todo.IDGenerator) *TodoService {
	if ids == nil {
		ids = todo.NewIDGenerator(nil)
	}
	return &TodoService{store: store, persistence: persistence, ids: ids}
}

// Start は起動時の読み込みを行います。
// ストレージが使えない場合は警告を記録し、空のリストで初回描画を通知します。
func (s *TodoService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistence.Available(ctx) {
		err := s.persistence.Load(ctx, s.store)
		if err == nil {
			s.loaded = true
			for _, t := range s.store.List() {
				s.ids.Observe(t.ID)
			}
			log.Info("Loaded task list", "count", s.store.Len())
			return nil
		}
		if !errors.Is(err, repositories.ErrStorageUnavailable) {
			log.Printf("Failed to load task list: %v", err)
			return err
		}
		log.Warn("Could not read task list", "err", err)
	}

	s.setWarning(StorageWarningMessage)
	log.Warn("Storage is not available, running in memory only")
	s.persistence.notify(s.store.List())
	return nil
}

// AddTask はフォームの内容から新しい未完了タスクを作成して保存します。
func (s *TodoService) AddTask(ctx context.Context, form models.TaskForm) (models.Task, error) {
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.DueDate) == "" {
		return models.Task{}, ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := models.Task{
		ID:        s.ids.Next(),
		Title:     form.Title,
		DueDate:   form.DueDate,
		Completed: false,
	}
	if err := s.store.Add(task); err != nil {
		return models.Task{}, err
	}
	s.save(ctx)
	return task, nil
}

// CompleteTask はタスクを完了にします。
func (s *TodoService) CompleteTask(ctx context.Context, id int64) todo.Result {
	return s.setCompleted(ctx, id, true)
}

// UndoTask は完了したタスクを未完了に戻します。
func (s *TodoService) UndoTask(ctx context.Context, id int64) todo.Result {
	return s.setCompleted(ctx, id, false)
}

func (s *TodoService) setCompleted(ctx context.Context, id int64, completed bool) todo.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.store.SetCompleted(id, completed)
	if res == todo.Applied {
		s.save(ctx)
	}
	return res
}

// DeleteTask は完了済みのタスクを削除します。未完了のタスクは削除しません。
// 確認 (JWTService.ValidateDeleteConfirmation) は呼び出し側で済ませておきます。
func (s *TodoService) DeleteTask(ctx context.Context, id int64) todo.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.store.FindByID(id)
	if !ok {
		return todo.NotFound
	}
	if !t.Completed {
		return todo.NotCompleted
	}
	res := s.store.Remove(id)
	if res == todo.Applied {
		s.save(ctx)
	}
	return res
}

// Tasks は現在のタスク一覧を返します。
func (s *TodoService) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// GetTask は指定IDのタスクを返します。
func (s *TodoService) GetTask(id int64) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FindByID(id)
}

// StorageWarning はストレージ警告を返します。問題が無ければ空文字列です。
func (s *TodoService) StorageWarning() string {
	s.warnMu.RLock()
	defer s.warnMu.RUnlock()
	return s.warning
}

// StorageAvailable はストレージが使えるかを返します。
func (s *TodoService) StorageAvailable(ctx context.Context) bool {
	return s.persistence.Available(ctx)
}

// save は呼び出し側でmuを保持した状態で使います。
// 保存に失敗してもメモリ上の変更は維持し、警告だけを記録します。
func (s *TodoService) save(ctx context.Context) {
	if !s.loaded {
		if err := s.mergeStored(ctx); err != nil {
			// 保存済みのリストを読めないうちは書き込まない
			log.Warn("Skipping persistence, stored task list not loaded yet", "err", err)
			s.setWarning(StorageWarningMessage)
			s.persistence.notify(s.store.List())
			return
		}
	}

	err := s.persistence.Save(ctx, s.store.List())
	if err == nil {
		s.setWarning("")
		return
	}
	if errors.Is(err, repositories.ErrStorageUnavailable) {
		log.Warn("Skipping persistence, storage unavailable", "err", err)
	} else {
		log.Printf("Failed to save task list: %v", err)
	}
	s.setWarning(StorageWarningMessage)
}

// mergeStored は保存済みのタスクをメモリ上のタスクの前に統合します。
// メモリ上のタスクのIDが保存済みのものと重なった場合は新しいIDを振り直します。
func (s *TodoService) mergeStored(ctx context.Context) error {
	if !s.persistence.Available(ctx) {
		return repositories.ErrStorageUnavailable
	}
	stored, err := s.persistence.Fetch(ctx)
	if err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(stored))
	merged := make([]models.Task, 0, len(stored)+s.store.Len())
	for _, t := range stored {
		seen[t.ID] = struct{}{}
		s.ids.Observe(t.ID)
		merged = append(merged, t)
	}
	for _, t := range s.store.List() {
		if _, dup := seen[t.ID]; dup {
			t.ID = s.ids.Next()
		}
		seen[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	if err := s.store.Replace(merged); err != nil {
		return err
	}
	s.loaded = true
	log.Info("Merged stored task list", "stored", len(stored), "total", len(merged))
	return nil
}

func (s *TodoService) setWarning(msg string) {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	s.warning = msg
}
