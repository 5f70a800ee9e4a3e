package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hitoshi/todoman/internal/model"
)

// MemoryStore はプロセス内メモリにユーザーとタスクを保持するリポジトリ。
// コンソールモードとテストで使用する。
// UserRepositoryとTaskRepositoryの両方を実装し、ユーザー削除時に
// 所有タスクを連鎖削除する。
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	tasks map[string]*model.Task
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*model.User),
		tasks: make(map[string]*model.Task),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// FindByEmail はメールアドレスでユーザーを検索する（大文字小文字を区別しない）。
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
func (s *MemoryStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// DeleteByID はユーザーと所有タスクを削除する。
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for taskID, t := range s.tasks {
		if t.UserID == id {
			delete(s.tasks, taskID)
		}
	}
	return nil
}

// Tasks はTaskRepositoryとしてのビューを返す。
// FindByIDのシグネチャがUserRepositoryと衝突するため別の型で公開する。
func (s *MemoryStore) Tasks() *MemoryTaskRepo {
	return &MemoryTaskRepo{store: s}
}

// MemoryTaskRepo はMemoryStoreのタスク操作。
type MemoryTaskRepo struct {
	store *MemoryStore
}

// NewMemoryTaskRepo は独立したMemoryStoreを持つタスクリポジトリを生成する。
func NewMemoryTaskRepo() *MemoryTaskRepo {
	return NewMemoryStore().Tasks()
}

// Create はタスクを作成する。
func (r *MemoryTaskRepo) Create(ctx context.Context, task *model.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.tasks[task.ID] = cloneTask(task)
	return nil
}

// ListByOwner は指定ユーザーが所有するタスクを作成日時の昇順で返す。
func (r *MemoryTaskRepo) ListByOwner(ctx context.Context, userID string) ([]*model.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tasks := []*model.Task{}
	for _, t := range r.store.tasks {
		if t.UserID == userID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return lessID(tasks[i].ID, tasks[j].ID)
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *MemoryTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tasks[id]
	if !ok {
		return nil, nil
	}
	return cloneTask(t), nil
}

// Mutate はコピーに対してfnを適用し、成功した場合のみ保存する。
func (r *MemoryTaskRepo) Mutate(ctx context.Context, id string, fn TaskMutation) (*model.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	working := cloneTask(t)
	if err := fn(working); err != nil {
		return nil, err
	}
	r.store.tasks[id] = cloneTask(working)
	return working, nil
}

// Remove はcheckがnilを返した場合のみタスクを削除する。
func (r *MemoryTaskRepo) Remove(ctx context.Context, id string, check TaskMutation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if err := check(cloneTask(t)); err != nil {
		return err
	}
	delete(r.store.tasks, id)
	return nil
}

func cloneTask(t *model.Task) *model.Task {
	cp := *t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	return &cp
}

// lessID は連番IDを数値順に並べるため、桁数を先に比較する。
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// compile-time interface check
var (
	_ UserRepository = (*MemoryStore)(nil)
	_ TaskRepository = (*MemoryTaskRepo)(nil)
)
