package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mediarank/internal/model"
)

// PostgresVoteRepo はPostgreSQLを使用した投票リポジトリ。
type PostgresVoteRepo struct {
	db *sql.DB
}

// NewPostgresVoteRepo はPostgresVoteRepoを生成する。
func NewPostgresVoteRepo(db *sql.DB) *PostgresVoteRepo {
	return &PostgresVoteRepo{db: db}
}

// Create は投票を冪等に作成する。
// UNIQUE(user_id, work_id)制約を利用したINSERT ON CONFLICT DO NOTHINGで実装し、
// 既に投票済みの場合は何もせずinserted=falseを返す。
// 同時リクエストでも重複行は発生しない（事前のSELECTによる判定は行わない）。
func (r *PostgresVoteRepo) Create(ctx context.Context, vote *model.Vote) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (id, user_id, work_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, work_id) DO NOTHING`,
		vote.ID, vote.UserID, vote.WorkID, vote.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("投票の作成に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("投票結果の確認に失敗しました: %w", err)
	}

	return rowsAffected > 0, nil
}

// ExistsByUserAndWork はユーザーが作品に投票済みかを返す。
func (r *PostgresVoteRepo) ExistsByUserAndWork(ctx context.Context, userID, workID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = $1 AND work_id = $2)`,
		userID, workID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("投票有無の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// CountByWorkID は作品の得票数を返す。
func (r *PostgresVoteRepo) CountByWorkID(ctx context.Context, workID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE work_id = $1`,
		workID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("得票数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListByUserID はユーザーの投票一覧を作品情報付きでcreated_at降順で返す。
func (r *PostgresVoteRepo) ListByUserID(ctx context.Context, userID string) ([]model.VoteWithWork, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.id, v.user_id, v.work_id, v.created_at, w.title, w.category
		 FROM votes v
		 INNER JOIN works w ON w.id = v.work_id
		 WHERE v.user_id = $1
		 ORDER BY v.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("投票一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var votes []model.VoteWithWork
	for rows.Next() {
		vote := model.VoteWithWork{}
		if err := rows.Scan(&vote.ID, &vote.UserID, &vote.WorkID, &vote.CreatedAt, &vote.WorkTitle, &vote.WorkCategory); err != nil {
			return nil, fmt.Errorf("投票の読み取りに失敗しました: %w", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投票の走査に失敗しました: %w", err)
	}

	return votes, nil
}

// DeleteByUserID はユーザーの全投票を削除する。
func (r *PostgresVoteRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM votes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの投票の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ VoteRepository = (*PostgresVoteRepo)(nil)
