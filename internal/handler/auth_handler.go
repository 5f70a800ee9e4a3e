package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// 認証試行の種類（メトリクスのactionラベル）
const (
	authActionSignup = "signup"
	authActionLogin  = "login"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, req signupRequest) (*authResponse, error)
	Login(ctx context.Context, email, password string) (*authResponse, error)
}

// AuthAttemptRecorder は認証試行の結果を記録するインターフェース。
type AuthAttemptRecorder interface {
	RecordAuthAttempt(action, outcome string)
}

// AuthHandler はサインアップ・ログイン・プロフィール取得のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	recorder AuthAttemptRecorder
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, recorder AuthAttemptRecorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		recorder: recorder,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// authResponse はトークン発行時のAPIレスポンス。
type authResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

// Signup はユーザー登録を処理する。
// POST /v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		h.record(authActionSignup, model.NewInvalidRequestError())
		return
	}

	res, err := h.service.Signup(r.Context(), req)
	h.record(authActionSignup, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Login はログインを処理する。
// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		h.record(authActionLogin, model.NewInvalidRequestError())
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	h.record(authActionLogin, err)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Profile は認証済みユーザーの情報を返す。
// GET /v1/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) record(action string, err error) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordAuthAttempt(action, authOutcome(err))
}

// authOutcome はエラーを記録用の結果ラベルに変換する。
func authOutcome(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidRequest:
		return "invalid"
	case model.ErrCodeInvalidCredentials:
		return "rejected"
	case model.ErrCodeEmailAlreadyRegistered:
		return "conflict"
	default:
		return "error"
	}
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
