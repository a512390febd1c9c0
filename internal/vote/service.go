// Package vote は作品への投票のドメインロジックを提供する。
package vote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/mediarank/internal/model"
	"github.com/hitoshi/mediarank/internal/repository"
)

// VoteRecorder は投票メトリクスを記録するインターフェース。
type VoteRecorder interface {
	RecordVoteCast()
	RecordVoteDuplicate()
}

// Service は投票のサービス層。
// 投票の一意性はvotesテーブルのUNIQUE制約で保証され、
// 事前の存在確認による競合は発生しない。
type Service struct {
	voteRepo repository.VoteRepository
	workRepo repository.WorkRepository
	metrics  VoteRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	voteRepo repository.VoteRepository,
	workRepo repository.WorkRepository,
	metrics VoteRecorder,
) *Service {
	return &Service{
		voteRepo: voteRepo,
		workRepo: workRepo,
		metrics:  metrics,
	}
}

// Upvote はユーザーの作品への投票を登録する。
// フロー: 作品の存在チェック → 認証チェック → 冪等な投票登録
// 存在しない作品はログイン状態にかかわらずWorkNotFoundを返す。
// 同一ユーザーによる同一作品への再投票は票を増やさず成功として扱う。
func (s *Service) Upvote(ctx context.Context, userID string, workID string) error {
	// 1. 存在チェック（認証より先。存在しないIDは誰に対しても404）
	work, err := s.workRepo.FindByID(ctx, workID)
	if err != nil {
		return fmt.Errorf("作品の取得に失敗しました: %w", err)
	}
	if work == nil {
		return model.NewWorkNotFoundError(workID)
	}

	// 2. 認証チェック
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	// 3. 投票登録。重複はDBのON CONFLICTで吸収される
	vote := &model.Vote{
		ID:        uuid.New().String(),
		UserID:    userID,
		WorkID:    workID,
		CreatedAt: time.Now(),
	}

	inserted, err := s.voteRepo.Create(ctx, vote)
	if err != nil {
		return fmt.Errorf("投票の登録に失敗しました: %w", err)
	}

	if inserted {
		if s.metrics != nil {
			s.metrics.RecordVoteCast()
		}
		slog.Info("vote cast",
			slog.String("user_id", userID),
			slog.String("work_id", workID),
		)
	} else {
		// 再投票。票は増えないが成功として扱う
		if s.metrics != nil {
			s.metrics.RecordVoteDuplicate()
		}
		slog.Info("duplicate vote ignored",
			slog.String("user_id", userID),
			slog.String("work_id", workID),
		)
	}

	return nil
}

// HasVoted はユーザーが作品に投票済みかを返す。
func (s *Service) HasVoted(ctx context.Context, userID string, workID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	voted, err := s.voteRepo.ExistsByUserAndWork(ctx, userID, workID)
	if err != nil {
		return false, fmt.Errorf("投票状態の確認に失敗しました: %w", err)
	}
	return voted, nil
}

// CountForWork は作品の得票数を返す。
func (s *Service) CountForWork(ctx context.Context, workID string) (int, error) {
	count, err := s.voteRepo.CountByWorkID(ctx, workID)
	if err != nil {
		return 0, fmt.Errorf("得票数の取得に失敗しました: %w", err)
	}
	return count, nil
}
