package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mediarank/internal/middleware"
	"github.com/hitoshi/mediarank/internal/model"
	"github.com/hitoshi/mediarank/internal/work"
)

// WorkServiceInterface は作品ハンドラーが必要とするサービスインターフェース。
type WorkServiceInterface interface {
	// List は全作品を投票数付きで返す。
	List(ctx context.Context) ([]model.WorkWithVotes, error)
	// Get は作品を投票数付きで取得する。
	Get(ctx context.Context, workID string) (*model.WorkWithVotes, error)
	// Create は作品を登録する。
	Create(ctx context.Context, userID string, input work.WorkInput) (*model.Work, error)
	// Update は作品情報を更新する。
	Update(ctx context.Context, userID string, workID string, input work.WorkInput) (*model.Work, error)
	// Delete は作品を削除する。
	Delete(ctx context.Context, userID string, workID string) error
	// GetRankings はトップページ用のランキングを返す。
	GetRankings(ctx context.Context) (*work.Rankings, error)
}

// VoteServiceInterface は投票ハンドラーが必要とするサービスインターフェース。
type VoteServiceInterface interface {
	// Upvote は作品に1票を投じる。投票済みの場合も成功として扱う。
	Upvote(ctx context.Context, userID string, workID string) error
}

// WorkHandler は作品カタログと投票のHTTPハンドラー。
type WorkHandler struct {
	workService WorkServiceInterface
	voteService VoteServiceInterface
	baseURL     string
}

// NewWorkHandler はWorkHandlerを生成する。
func NewWorkHandler(workService WorkServiceInterface, voteService VoteServiceInterface, baseURL string) *WorkHandler {
	return &WorkHandler{
		workService: workService,
		voteService: voteService,
		baseURL:     baseURL,
	}
}

// workRequest は作品の登録・更新リクエストのボディ。
type workRequest struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	Creator         string `json:"creator"`
	Description     string `json:"description"`
	PublicationYear int    `json:"publication_year"`
	CoverURL        string `json:"cover_url"`
}

// workResponse は作品情報のAPIレスポンス。
type workResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Creator         string `json:"creator"`
	Description     string `json:"description"`
	PublicationYear int    `json:"publication_year"`
	HasCover        bool   `json:"has_cover"`
	VoteCount       int    `json:"vote_count"`
}

// rankingsResponse はトップページのランキングレスポンス。
type rankingsResponse struct {
	Spotlight *workResponse  `json:"spotlight"`
	Albums    []workResponse `json:"albums"`
	Books     []workResponse `json:"books"`
	Movies    []workResponse `json:"movies"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Rankings はトップページのランキングを返す。
// GET /
func (h *WorkHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.workService.GetRankings(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := rankingsResponse{
		Albums: toWorkResponses(rankings.Albums),
		Books:  toWorkResponses(rankings.Books),
		Movies: toWorkResponses(rankings.Movies),
	}
	if rankings.Spotlight != nil {
		spotlight := toWorkResponse(*rankings.Spotlight)
		resp.Spotlight = &spotlight
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListWorks は全作品を投票数付きで返す。
// GET /api/works
func (h *WorkHandler) ListWorks(w http.ResponseWriter, r *http.Request) {
	works, err := h.workService.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]workResponse{
		"works": toWorkResponses(works),
	})
}

// GetWork は作品詳細を取得する。
// GET /api/works/:id
func (h *WorkHandler) GetWork(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "id")

	detail, err := h.workService.Get(r.Context(), workID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWorkResponse(*detail))
}

// CreateWork は作品を登録する。
// POST /api/works
// ゲストの場合は何も登録せずトップページへ302リダイレクトする。
// 成功時は作品詳細へ302リダイレクトする。
func (h *WorkHandler) CreateWork(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContextOrEmpty(r.Context())

	var req workRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	created, err := h.workService.Create(r.Context(), userID, toWorkInput(req))
	if err != nil {
		h.handleMutationError(w, r, err)
		return
	}

	http.Redirect(w, r, h.workURL(created.ID), http.StatusFound)
}

// UpdateWork は作品情報を更新する。
// PUT /api/works/:id
// 存在しない作品は呼び出し元にかかわらず404を返す。
func (h *WorkHandler) UpdateWork(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContextOrEmpty(r.Context())
	workID := chi.URLParam(r, "id")

	var req workRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	updated, err := h.workService.Update(r.Context(), userID, workID, toWorkInput(req))
	if err != nil {
		h.handleMutationError(w, r, err)
		return
	}

	http.Redirect(w, r, h.workURL(updated.ID), http.StatusFound)
}

// DeleteWork は作品を削除する。
// DELETE /api/works/:id
// 成功時はトップページへ302リダイレクトする。
func (h *WorkHandler) DeleteWork(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContextOrEmpty(r.Context())
	workID := chi.URLParam(r, "id")

	if err := h.workService.Delete(r.Context(), userID, workID); err != nil {
		h.handleMutationError(w, r, err)
		return
	}

	http.Redirect(w, r, h.baseURL, http.StatusFound)
}

// Upvote は作品に1票を投じる。
// POST /api/works/:id/upvote
// 投票済みの場合も成功として作品詳細へ302リダイレクトする。
func (h *WorkHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContextOrEmpty(r.Context())
	workID := chi.URLParam(r, "id")

	if err := h.voteService.Upvote(r.Context(), userID, workID); err != nil {
		h.handleMutationError(w, r, err)
		return
	}

	http.Redirect(w, r, h.workURL(workID), http.StatusFound)
}

// --- ヘルパー関数 ---

// workURL は作品詳細のリダイレクト先URLを返す。
func (h *WorkHandler) workURL(workID string) string {
	return h.baseURL + "/works/" + workID
}

// handleMutationError は更新系操作のエラーをHTTPレスポンスに変換する。
// 未ログインエラーはブラウザフローとしてトップページへ302リダイレクトし、
// それ以外は統一エラーフォーマットのJSONを返す。
func (h *WorkHandler) handleMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUnauthorized {
		http.Redirect(w, r, h.baseURL, http.StatusFound)
		return
	}
	handleServiceError(w, err)
}

// toWorkInput はリクエストボディからサービス層の入力値に変換する。
func toWorkInput(req workRequest) work.WorkInput {
	return work.WorkInput{
		Title:           req.Title,
		Category:        req.Category,
		Creator:         req.Creator,
		Description:     req.Description,
		PublicationYear: req.PublicationYear,
		CoverURL:        req.CoverURL,
	}
}

// toWorkResponse はmodel.WorkWithVotesからAPIレスポンスに変換する。
func toWorkResponse(wv model.WorkWithVotes) workResponse {
	return workResponse{
		ID:              wv.ID,
		Title:           wv.Title,
		Category:        string(wv.Category),
		Creator:         wv.Creator,
		Description:     wv.Description,
		PublicationYear: wv.PublicationYear,
		HasCover:        len(wv.CoverData) > 0,
		VoteCount:       wv.VoteCount,
	}
}

// toWorkResponses はmodel.WorkWithVotesのスライスをAPIレスポンスに変換する。
func toWorkResponses(works []model.WorkWithVotes) []workResponse {
	results := make([]workResponse, len(works))
	for i, wv := range works {
		results[i] = toWorkResponse(wv)
	}
	return results
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeWorkNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidIdentity:
		return http.StatusUnauthorized
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
