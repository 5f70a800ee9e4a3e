// Package task は所有者単位で分離されたタスク管理のドメインロジックを提供する。
//
// すべての操作は認証済みユーザーのIDを受け取り、対象タスクが存在しない場合は
// TASK_NOT_FOUND、他ユーザーのタスクである場合はTASK_FORBIDDENを返す。
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/validation"
)

// 操作名（メトリクスのoperationラベル）
const (
	OpCreate        = "create"
	OpList          = "list"
	OpGet           = "get"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpSetCompletion = "set_completion"
	OpToggle        = "toggle"
)

// OperationRecorder はタスク操作の結果を記録するインターフェース。
type OperationRecorder interface {
	RecordTaskOperation(operation, outcome string)
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithIDGenerator はタスクIDの採番方法を差し替える。
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock は現在時刻の取得方法を差し替える。
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithRecorder は操作結果の記録先を設定する。
func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service はタスク管理のサービス層。
type Service struct {
	repo      repository.TaskRepository
	validator *validation.Validator
	newID     func() string
	now       func() time.Time
	recorder  OperationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaskRepository, validator *validation.Validator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: validator,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create はタスクを作成する。ステータスはpendingで開始する。
func (s *Service) Create(ctx context.Context, userID string, draft model.TaskDraft) (t *model.Task, err error) {
	defer func() { s.record(OpCreate, err) }()

	title, errs := s.validator.Title(draft.Title)
	description, descErrs := s.validator.Description(draft.Description)
	if details := append(errs, descErrs...); len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	now := s.now()
	t = &model.Task{
		ID:          s.newID(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      model.TaskStatusPending,
		DueDate:     draft.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return t, nil
}

// List はユーザーが所有するタスクの一覧を返す。
func (s *Service) List(ctx context.Context, userID string) (tasks []*model.Task, err error) {
	defer func() { s.record(OpList, err) }()

	tasks, err = s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get は指定タスクを取得する。
func (s *Service) Get(ctx context.Context, userID, taskID string) (t *model.Task, err error) {
	defer func() { s.record(OpGet, err) }()

	t, err = s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if t.UserID != userID {
		return nil, model.NewTaskForbiddenError()
	}
	return t, nil
}

// Update は指定されたフィールドのみを更新する。
// 変更内容はトランザクション開始前にすべて検証し、1つでも不正であれば何も適用しない。
func (s *Service) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (t *model.Task, err error) {
	defer func() { s.record(OpUpdate, err) }()

	var (
		details     []string
		title       string
		description string
		status      model.TaskStatus
	)
	if patch.Title != nil {
		var errs []string
		title, errs = s.validator.Title(*patch.Title)
		details = append(details, errs...)
	}
	if patch.Description != nil {
		var errs []string
		description, errs = s.validator.Description(*patch.Description)
		details = append(details, errs...)
	}
	if patch.Status != nil {
		var errs []string
		status, errs = s.validator.Status(*patch.Status)
		details = append(details, errs...)
	}
	if len(details) > 0 {
		return nil, model.NewValidationError(details)
	}

	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		if patch.Title != nil {
			task.Title = title
		}
		if patch.Description != nil {
			task.Description = description
		}
		if patch.Status != nil {
			task.Status = status
		}
		switch {
		case patch.ClearDueDate:
			task.DueDate = nil
		case patch.DueDate != nil:
			due := *patch.DueDate
			task.DueDate = &due
		}
	})
}

// SetCompletion は完了状態を設定する。同じ値を繰り返し設定してもエラーにならない。
func (s *Service) SetCompletion(ctx context.Context, userID, taskID string, completed bool) (t *model.Task, err error) {
	defer func() { s.record(OpSetCompletion, err) }()

	status := model.TaskStatusPending
	if completed {
		status = model.TaskStatusCompleted
	}
	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		task.Status = status
	})
}

// Toggle は完了状態を反転する。
func (s *Service) Toggle(ctx context.Context, userID, taskID string) (t *model.Task, err error) {
	defer func() { s.record(OpToggle, err) }()

	return s.mutate(ctx, userID, taskID, func(task *model.Task) {
		if task.Status == model.TaskStatusCompleted {
			task.Status = model.TaskStatusPending
		} else {
			task.Status = model.TaskStatusCompleted
		}
	})
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID, taskID string) (err error) {
	defer func() { s.record(OpDelete, err) }()

	err = s.repo.Remove(ctx, taskID, func(task *model.Task) error {
		return checkOwner(task, userID)
	})
	return s.translate(err, taskID, "タスクの削除に失敗しました")
}

// mutate は所有者を確認したうえで変更を適用し、updated_atを更新する。
func (s *Service) mutate(ctx context.Context, userID, taskID string, apply func(*model.Task)) (*model.Task, error) {
	t, err := s.repo.Mutate(ctx, taskID, func(task *model.Task) error {
		if err := checkOwner(task, userID); err != nil {
			return err
		}
		apply(task)
		task.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.translate(err, taskID, "タスクの更新に失敗しました")
	}
	return t, nil
}

func checkOwner(task *model.Task, userID string) error {
	if task.UserID != userID {
		return model.NewTaskForbiddenError()
	}
	return nil
}

// translate はリポジトリのエラーをドメインエラーに変換する。
func (s *Service) translate(err error, taskID, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewTaskNotFoundError(taskID)
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *Service) record(operation string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordTaskOperation(operation, Outcome(err))
}

// Outcome はエラーを記録用の結果ラベルに変換する。
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Code {
	case model.ErrCodeValidationFailed:
		return "invalid"
	case model.ErrCodeTaskForbidden:
		return "forbidden"
	case model.ErrCodeTaskNotFound:
		return "not_found"
	default:
		return "error"
	}
}
