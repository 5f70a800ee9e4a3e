package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoman/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
// すべての操作は所有者のユーザーIDを受け取る。
type TaskServiceInterface interface {
	Create(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error)
	List(ctx context.Context, userID string) ([]*model.Task, error)
	Get(ctx context.Context, userID, taskID string) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (*model.Task, error)
	SetCompletion(ctx context.Context, userID, taskID string, completed bool) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
}

// setCompletionRequest は完了状態変更リクエストのボディ。
type setCompletionRequest struct {
	Completed *bool `json:"completed"`
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// taskListResponse はタスク一覧のAPIレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

// msgInvalidDueDate は期限の形式が不正な場合のメッセージ。
const msgInvalidDueDate = "期限はISO 8601形式（例: 2025-12-31T23:59:59Z）で指定してください"

// dueDateLayouts は受け付ける期限の書式。タイムゾーンのない値はUTCとして扱う。
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ListTasks は認証済みユーザーのタスク一覧を返す。
// GET /v1/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := taskListResponse{Tasks: make([]taskResponse, len(tasks))}
	for i, t := range tasks {
		resp.Tasks[i] = toTaskResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTask はタスクを作成する。
// POST /v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft := model.TaskDraft{Title: req.Title, Description: req.Description}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError([]string{msgInvalidDueDate}))
			return
		}
		draft.DueDate = due
	}

	t, err := h.service.Create(r.Context(), userID, draft)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

// GetTask はタスク詳細を返す。
// GET /v1/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// UpdateTask はボディに含まれるフィールドのみを更新する。
// due_dateにnullを指定した場合は期限を削除する。
// PUT /v1/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if !decodeJSON(w, r, &fields) {
		return
	}

	patch, err := parseTaskPatch(fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	t, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// SetCompletion はタスクの完了状態を設定する。
// PATCH /v1/tasks/{id}/complete
func (h *TaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req setCompletionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	t, err := h.service.SetCompletion(r.Context(), userID, chi.URLParam(r, "id"), *req.Completed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// DeleteTask はタスクを削除する。
// DELETE /v1/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// parseTaskPatch は部分更新のボディをTaskPatchに変換する。
// 未知のフィールドは無視する。
func parseTaskPatch(fields map[string]json.RawMessage) (model.TaskPatch, error) {
	var patch model.TaskPatch

	for name, dst := range map[string]**string{
		"title":       &patch.Title,
		"description": &patch.Description,
		"status":      &patch.Status,
	} {
		raw, ok := fields[name]
		if !ok || isJSONNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.TaskPatch{}, model.NewInvalidRequestError()
		}
		*dst = &s
	}

	if raw, ok := fields["due_date"]; ok {
		if isJSONNull(raw) {
			patch.ClearDueDate = true
			return patch, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.TaskPatch{}, model.NewInvalidRequestError()
		}
		due, err := parseDueDate(s)
		if err != nil {
			return model.TaskPatch{}, model.NewValidationError([]string{msgInvalidDueDate})
		}
		if due == nil {
			patch.ClearDueDate = true
		}
		patch.DueDate = due
	}

	return patch, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// parseDueDate は期限文字列を解析する。空文字列は期限なしとして扱う。
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q", s)
}

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
