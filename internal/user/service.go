// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/mediarank/internal/model"
	"github.com/hitoshi/mediarank/internal/repository"
)

// VoteDeleter は投票の一括削除インターフェース。
type VoteDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// VoteLister はユーザーの投票一覧取得インターフェース。
type VoteLister interface {
	ListByUserID(ctx context.Context, userID string) ([]model.VoteWithWork, error)
}

// UserWithVotes はユーザーとその投票履歴の表示データ。
type UserWithVotes struct {
	User  *model.User
	Votes []model.VoteWithWork
}

// Service はユーザー管理のサービス層。
// ユーザー一覧・詳細の取得と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	voteDeleter VoteDeleter
	voteLister  VoteLister
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	voteDeleter VoteDeleter,
	voteLister VoteLister,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		voteDeleter: voteDeleter,
		voteLister:  voteLister,
	}
}

// List は全ユーザーを登録順で取得する。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetWithVotes はユーザーと投票履歴を取得する。
// 存在しないIDの場合はUserNotFoundエラーを返す。
func (s *Service) GetWithVotes(ctx context.Context, userID string) (*UserWithVotes, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	var votes []model.VoteWithWork
	if s.voteLister != nil {
		votes, err = s.voteLister.ListByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("投票履歴の取得に失敗しました: %w", err)
		}
	}

	return &UserWithVotes{User: user, Votes: votes}, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: votes → sessions → user（+ CASCADE: identities）
// 作品は共有カタログとして残す。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 投票を削除
	if s.voteDeleter != nil {
		if err := s.voteDeleter.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("投票の削除に失敗しました: %w", err)
		}
	}

	// 2. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 3. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
