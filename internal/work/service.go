// Package work は作品カタログの登録・管理のドメインロジックを提供する。
package work

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mediarank/internal/media"
	"github.com/hitoshi/mediarank/internal/model"
	"github.com/hitoshi/mediarank/internal/repository"
)

// defaultRankingTopN はカテゴリ別ランキングのデフォルト表示件数。
const defaultRankingTopN = 10

// Sanitizer はHTMLサニタイズのインターフェース。
// テスタビリティのためsecurity.ContentSanitizerServiceを抽象化する。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// CreatedRecorder は作品登録メトリクスを記録するインターフェース。
type CreatedRecorder interface {
	RecordWorkCreated(category string)
}

// VoteCounter は作品の得票数を取得するインターフェース。
// repository.VoteRepositoryのうち詳細表示に必要な操作のみを抽象化する。
type VoteCounter interface {
	CountByWorkID(ctx context.Context, workID string) (int, error)
}

// WorkInput は作品の登録・更新の入力。
type WorkInput struct {
	Title           string
	Category        string
	Creator         string
	Description     string
	PublicationYear int
	CoverURL        string
}

// Rankings はランキングページの表示データ。
// 最多得票の作品と、カテゴリごとの上位作品を保持する。
type Rankings struct {
	Spotlight *model.WorkWithVotes
	Albums    []model.WorkWithVotes
	Books     []model.WorkWithVotes
	Movies    []model.WorkWithVotes
}

// Service は作品カタログのサービス層。
// 入力検証 → サニタイズ → 保存 → カバー画像取得のフローを統括する。
type Service struct {
	workRepo     repository.WorkRepository
	voteCounter  VoteCounter
	sanitizer    Sanitizer
	coverFetcher media.CoverFetcherService
	metrics      CreatedRecorder
	topN         int
}

// NewService はServiceの新しいインスタンスを生成する。
// topNが0以下の場合はデフォルト値を使用する。
func NewService(
	workRepo repository.WorkRepository,
	voteCounter VoteCounter,
	sanitizer Sanitizer,
	coverFetcher media.CoverFetcherService,
	metrics CreatedRecorder,
	topN int,
) *Service {
	if topN <= 0 {
		topN = defaultRankingTopN
	}
	return &Service{
		workRepo:     workRepo,
		voteCounter:  voteCounter,
		sanitizer:    sanitizer,
		coverFetcher: coverFetcher,
		metrics:      metrics,
		topN:         topN,
	}
}

// List は全作品を得票数付きで取得する。
func (s *Service) List(ctx context.Context) ([]model.WorkWithVotes, error) {
	works, err := s.workRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("作品一覧の取得に失敗しました: %w", err)
	}
	return works, nil
}

// Get は作品を得票数付きで取得する。
// 存在しないIDの場合はWorkNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, workID string) (*model.WorkWithVotes, error) {
	work, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("作品の取得に失敗しました: %w", err)
	}
	if work == nil {
		return nil, model.NewWorkNotFoundError(workID)
	}

	count := 0
	if s.voteCounter != nil {
		count, err = s.voteCounter.CountByWorkID(ctx, workID)
		if err != nil {
			return nil, fmt.Errorf("得票数の取得に失敗しました: %w", err)
		}
	}

	return &model.WorkWithVotes{Work: *work, VoteCount: count}, nil
}

// Create は作品を新規登録する。
// フロー: 認証チェック → 入力検証 → サニタイズ → 保存 → カバー画像取得
// 未ログイン（userIDが空）の場合は検証より先にUnauthorizedを返す。
func (s *Service) Create(ctx context.Context, userID string, input WorkInput) (*model.Work, error) {
	// 1. 認証チェック（検証より先）
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	// 2. 入力検証
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	work := &model.Work{
		ID:              uuid.New().String(),
		Title:           input.Title,
		Category:        model.Category(input.Category),
		Creator:         input.Creator,
		Description:     s.sanitizeDescription(input.Description),
		PublicationYear: input.PublicationYear,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 3. カバー画像取得（取得失敗時はカバーなしで保存）
	s.fetchCover(ctx, work, input.CoverURL)

	if err := s.workRepo.Create(ctx, work); err != nil {
		return nil, fmt.Errorf("作品の保存に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordWorkCreated(input.Category)
	}

	slog.Info("work created",
		slog.String("work_id", work.ID),
		slog.String("category", string(work.Category)),
		slog.String("user_id", userID),
	)

	return work, nil
}

// Update は作品を更新する。
// フロー: 存在チェック → 認証チェック → 入力検証 → サニタイズ → 保存
// 存在しない作品はログイン状態にかかわらずWorkNotFoundを返す。
func (s *Service) Update(ctx context.Context, userID string, workID string, input WorkInput) (*model.Work, error) {
	// 1. 存在チェック（認証より先。存在しないIDは誰に対しても404）
	existing, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("作品の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewWorkNotFoundError(workID)
	}

	// 2. 認証チェック
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	// 3. 入力検証
	if err := validateInput(input); err != nil {
		return nil, err
	}

	work := existing
	work.Title = input.Title
	work.Category = model.Category(input.Category)
	work.Creator = input.Creator
	work.Description = s.sanitizeDescription(input.Description)
	work.PublicationYear = input.PublicationYear
	work.UpdatedAt = time.Now()

	if input.CoverURL != "" {
		s.fetchCover(ctx, work, input.CoverURL)
	}

	if err := s.workRepo.Update(ctx, work); err != nil {
		return nil, fmt.Errorf("作品の更新に失敗しました: %w", err)
	}

	return work, nil
}

// Delete は作品を削除する。
// フロー: 存在チェック → 認証チェック → 削除
func (s *Service) Delete(ctx context.Context, userID string, workID string) error {
	existing, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return fmt.Errorf("作品の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewWorkNotFoundError(workID)
	}

	if userID == "" {
		return model.NewUnauthorizedError()
	}

	if err := s.workRepo.Delete(ctx, workID); err != nil {
		return fmt.Errorf("作品の削除に失敗しました: %w", err)
	}

	slog.Info("work deleted",
		slog.String("work_id", workID),
		slog.String("user_id", userID),
	)

	return nil
}

// GetRankings はランキングページの表示データを取得する。
// 全作品中の最多得票作品と、カテゴリごとの上位作品を返す。
// 作品が1件もない場合、Spotlightはnilになる。
func (s *Service) GetRankings(ctx context.Context) (*Rankings, error) {
	spotlight, err := s.workRepo.FindSpotlight(ctx)
	if err != nil {
		return nil, fmt.Errorf("注目作品の取得に失敗しました: %w", err)
	}

	rankings := &Rankings{Spotlight: spotlight}

	albums, err := s.workRepo.ListTopByCategory(ctx, model.CategoryAlbum, s.topN)
	if err != nil {
		return nil, fmt.Errorf("アルバムランキングの取得に失敗しました: %w", err)
	}
	rankings.Albums = albums

	books, err := s.workRepo.ListTopByCategory(ctx, model.CategoryBook, s.topN)
	if err != nil {
		return nil, fmt.Errorf("書籍ランキングの取得に失敗しました: %w", err)
	}
	rankings.Books = books

	movies, err := s.workRepo.ListTopByCategory(ctx, model.CategoryMovie, s.topN)
	if err != nil {
		return nil, fmt.Errorf("映画ランキングの取得に失敗しました: %w", err)
	}
	rankings.Movies = movies

	return rankings, nil
}

// validateInput は作品入力を検証する。
// タイトルは空白のみの場合も不正とする。
// カテゴリは定義済みの値との完全一致のみ許可する（前後の空白も大文字小文字の違いも不正）。
func validateInput(input WorkInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return model.NewValidationFailedError("title is required")
	}
	if !model.Category(input.Category).IsValid() {
		return model.NewValidationFailedError(fmt.Sprintf("invalid category: %q", input.Category))
	}
	return nil
}

// sanitizeDescription は作品説明のHTMLをサニタイズする。
func (s *Service) sanitizeDescription(description string) string {
	if s.sanitizer == nil {
		return description
	}
	return s.sanitizer.Sanitize(description)
}

// fetchCover はカバー画像を取得して作品にセットする。
// 取得失敗時はログ出力のみで、エラーを返さない。
func (s *Service) fetchCover(ctx context.Context, work *model.Work, coverURL string) {
	if s.coverFetcher == nil || coverURL == "" {
		return
	}

	data, mimeType, err := s.coverFetcher.FetchCover(ctx, coverURL)
	if err != nil {
		slog.Warn("カバー画像取得エラー", "workID", work.ID, "coverURL", coverURL, "error", err)
		return
	}
	if data == nil {
		slog.Info("カバー画像未検出（カバーなしで保存）", "workID", work.ID, "coverURL", coverURL)
		return
	}

	work.CoverData = data
	work.CoverMime = mimeType
	slog.Info("カバー画像取得完了", "workID", work.ID, "mimeType", mimeType, "size", len(data))
}
