// Package todo はメモリ上のタスクリスト (Task Store) とID生成を提供します。
package todo

import (
	"errors"
	"fmt"

	"todo-apps/internal/models"
)

// ErrDuplicateID は同じIDのタスクが既にリストにある場合のエラーです。
var ErrDuplicateID = errors.New("duplicate task id")

// Result は存在しないIDに対する操作を明示するための結果型です。
// 見つからない場合はエラーではなく NotFound を返し、リストは変更しません。
type Result int

const (
	// NotFound は対象のタスクが存在せず、何も変更しなかったことを表します。
	NotFound Result = iota
	// Applied は操作がリストに反映されたことを表します。
	Applied
	// NotCompleted は未完了タスクへの削除要求を拒否したことを表します。
	NotCompleted
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case NotCompleted:
		return "not_completed"
	default:
		return "not_found"
	}
}

// Store は挿入順を保持するタスクのリストです。
// 排他制御は持たないため、呼び出し側 (services.TodoService) が直列化します。
type Store struct {
	tasks []models.Task
}

// NewStore は空のStoreを作成します。
func NewStore() *Store {
	return &Store{}
}

// Add はタスクを末尾に追加します。
func (s *Store) Add(t models.Task) error {
	if _, ok := s.FindIndexByID(t.ID); ok {
		return fmt.Errorf("could not add task %d: %w", t.ID, ErrDuplicateID)
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// FindByID は指定IDのタスクのコピーを返します。
func (s *Store) FindByID(id int64) (models.Task, bool) {
	i, ok := s.FindIndexByID(id)
	if !ok {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// FindIndexByID は指定IDのタスクの位置を返します。
func (s *Store) FindIndexByID(id int64) (int, bool) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Remove は指定IDのタスクを削除します。存在しなければ何もしません。
func (s *Store) Remove(id int64) Result {
	i, ok := s.FindIndexByID(id)
	if !ok {
		return NotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return Applied
}

// SetCompleted は指定IDのタスクの完了状態を更新します。存在しなければ何もしません。
func (s *Store) SetCompleted(id int64, completed bool) Result {
	i, ok := s.FindIndexByID(id)
	if !ok {
		return NotFound
	}
	s.tasks[i].Completed = completed
	return Applied
}

// Replace はリスト全体を置き換えます。IDが重複していれば何も変更しません。
func (s *Store) Replace(tasks []models.Task) error {
	seen := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("could not replace tasks, id %d: %w", t.ID, ErrDuplicateID)
		}
		seen[t.ID] = struct{}{}
	}
	s.tasks = append([]models.Task(nil), tasks...)
	return nil
}

// List は挿入順のタスク一覧のコピーを返します。
func (s *Store) List() []models.Task {
	return append([]models.Task{}, s.tasks...)
}

// Len はタスク数を返します。
func (s *Store) Len() int {
	return len(s.tasks)
}

// PartitionTasks は与えられたタスクを未完了と完了に振り分けます。
func PartitionTasks(tasks []models.Task) (pending, completed []models.Task) {
	pending = []models.Task{}
	completed = []models.Task{}
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}
