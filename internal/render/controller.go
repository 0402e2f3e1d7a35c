// Package render はタスクリストの変更通知を受けて画面 (未完了・完了の2つのリスト) を組み立て直します。
package render

import (
	"fmt"
	"sync"

	"todo-apps/internal/models"
	"todo-apps/internal/todo"
)

// 各要素に付くボタンの種類
const (
	ActionComplete = "complete"
	ActionUndo     = "undo"
	ActionDelete   = "delete"
)

// Action はリスト要素に付くボタン1つです。
type Action struct {
	Kind   string // complete / undo / delete
	Class  string // CSSクラス
	Method string // GET / POST
	URL    string
}

// Item はリストに表示するタスク1件です。
type Item struct {
	ElementID string
	ID        int64
	Title     string
	DueDate   string
	Completed bool
	Actions   []Action
}

// View は描画済みの2つのリストです。
type View struct {
	Version   uint64
	Pending   []Item
	Completed []Item
}

// Controller は変更通知のたびにViewを作り直し、購読中のページへ再描画イベントを送ります。
type Controller struct {
	mu   sync.RWMutex
	view View
	hub  *Hub
}

// NewController は新しいControllerを作成します。
func NewController(hub *Hub) *Controller {
	if hub == nil {
		hub = NewHub()
	}
	return &Controller{
		hub:  hub,
		view: View{Pending: []Item{}, Completed: []Item{}},
	}
}

// Hub はSSEの購読先を返します。
func (c *Controller) Hub() *Hub {
	return c.hub
}

// OnListChanged は両方のリストを空にしてから、リスト順に要素を作り直します。
func (c *Controller) OnListChanged(tasks []models.Task) {
	pending, completed := todo.PartitionTasks(tasks)

	c.mu.Lock()
	c.view.Pending = makeItems(pending)
	c.view.Completed = makeItems(completed)
	c.view.Version++
	version := c.view.Version
	c.mu.Unlock()

	c.hub.Broadcast(version)
}

// View は最新のViewのコピーを返します。
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		Version:   c.view.Version,
		Pending:   append([]Item{}, c.view.Pending...),
		Completed: append([]Item{}, c.view.Completed...),
	}
}

func makeItems(tasks []models.Task) []Item {
	items := make([]Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, makeItem(t))
	}
	return items
}

func makeItem(t models.Task) Item {
	item := Item{
		ElementID: fmt.Sprintf("todo-%d", t.ID),
		ID:        t.ID,
		Title:     t.Title,
		DueDate:   t.DueDate,
		Completed: t.Completed,
	}
	if t.Completed {
		item.Actions = []Action{
			{Kind: ActionUndo, Class: "undo-button", Method: "POST", URL: fmt.Sprintf("/todos/%d/undo", t.ID)},
			{Kind: ActionDelete, Class: "trash-button", Method: "GET", URL: fmt.Sprintf("/todos/%d/delete", t.ID)},
		}
	} else {
		item.Actions = []Action{
			{Kind: ActionComplete, Class: "check-button", Method: "POST", URL: fmt.Sprintf("/todos/%d/complete", t.ID)},
		}
	}
	return item
}
