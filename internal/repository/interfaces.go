// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/todoman/internal/model"
)

var (
	// ErrNotFound は対象レコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 所有するtasksはCASCADE削除される。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// TaskMutation はロック済みのタスクに対して変更を適用するコールバック。
// エラーを返した場合、変更は一切保存されずトランザクションはロールバックされる。
type TaskMutation func(task *model.Task) error

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// ListByOwner は指定ユーザーが所有するタスクを作成日時の昇順で返す。
	ListByOwner(ctx context.Context, userID string) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Mutate は単一トランザクション内でタスクを行ロックして読み込み、
	// fnを適用した結果を保存する。タスクが存在しない場合はErrNotFoundを返す。
	Mutate(ctx context.Context, id string, fn TaskMutation) (*model.Task, error)

	// Remove は単一トランザクション内でタスクを行ロックして読み込み、
	// checkがnilを返した場合のみ削除する。タスクが存在しない場合はErrNotFoundを返す。
	Remove(ctx context.Context, id string, check TaskMutation) error
}
