package model

import "time"

// TaskStatus はタスクの完了状態を表す。
type TaskStatus string

const (
	// TaskStatusPending は未完了状態。
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusCompleted は完了状態。
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid はステータスが定義済みの値かどうかを返す。
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task はユーザーが所有するタスクを表す。
type Task struct {
	ID          string
	UserID      string // 所有者のユーザーID
	Title       string
	Description string
	Status      TaskStatus
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskDraft はタスク作成時の入力値。
type TaskDraft struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// TaskPatch はタスクの部分更新内容。
// nilのフィールドは変更しない。ClearDueDateがtrueの場合は期限を削除する。
// Statusは検証前の生の値を保持する。
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
}
