package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mediarank/internal/middleware"
	"github.com/hitoshi/mediarank/internal/model"
	"github.com/hitoshi/mediarank/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// List は全ユーザーを登録順で返す。
	List(ctx context.Context) ([]*model.User, error)
	// GetWithVotes はユーザーを投票履歴付きで取得する。
	GetWithVotes(ctx context.Context, userID string) (*user.UserWithVotes, error)
	// Withdraw はユーザーの退会処理を実行する。
	// votes、sessions、user本体を削除する。worksは共有カタログとして残す。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// userVoteResponse はユーザー詳細に含める投票履歴のレスポンス。
type userVoteResponse struct {
	WorkID       string    `json:"work_id"`
	WorkTitle    string    `json:"work_title"`
	WorkCategory string    `json:"work_category"`
	VotedAt      time.Time `json:"voted_at"`
}

// userDetailResponse は投票履歴付きのユーザー詳細レスポンス。
type userDetailResponse struct {
	userResponse
	Votes []userVoteResponse `json:"votes"`
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]userResponse{
		"users": results,
	})
}

// GetUser はユーザー詳細を投票履歴付きで返す。
// GET /api/users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	detail, err := h.service.GetWithVotes(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	votes := make([]userVoteResponse, len(detail.Votes))
	for i, v := range detail.Votes {
		votes[i] = userVoteResponse{
			WorkID:       v.WorkID,
			WorkTitle:    v.WorkTitle,
			WorkCategory: string(v.WorkCategory),
			VotedAt:      v.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userDetailResponse{
		userResponse: toUserResponse(detail.User),
		Votes:        votes,
	})
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
