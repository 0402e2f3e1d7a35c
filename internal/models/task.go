// Package modelsはTaskを定義します。
package models

// Task は ToDoタスク1件を表します。
// JSONタグ: 永続化データとAPIの両方で使うキー (既存の保存データと互換)
type Task struct {
	ID        int64  `json:"id"`          // 作成時刻から生成される一意なID
	Title     string `json:"task"`        // タスクのタイトル
	DueDate   string `json:"timestamp"`   // 期日 (date入力の値, 例: 2024-01-01)
	Completed bool   `json:"isCompleted"` // 完了状態
}

// TaskForm はタスク追加フォーム (HTML/JSON共通) のリクエストです。
// 必須チェック以外のバリデーションは行いません。
type TaskForm struct {
	Title   string `form:"title" json:"task" binding:"required"`
	DueDate string `form:"date" json:"timestamp" binding:"required"`
}
