package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mediarank/internal/model"
)

// PostgresWorkRepo はPostgreSQLを使用した作品リポジトリ。
type PostgresWorkRepo struct {
	db *sql.DB
}

// NewPostgresWorkRepo はPostgresWorkRepoを生成する。
func NewPostgresWorkRepo(db *sql.DB) *PostgresWorkRepo {
	return &PostgresWorkRepo{db: db}
}

// workColumns は作品取得クエリの共通SELECT句。
const workColumns = `id, title, category, creator, description, publication_year,
	        cover_data, cover_mime, created_at, updated_at`

// FindByID は指定IDの作品を取得する。見つからない場合はnilを返す。
func (r *PostgresWorkRepo) FindByID(ctx context.Context, id string) (*model.Work, error) {
	work := &model.Work{}
	var creator, description, coverMime sql.NullString
	var publicationYear sql.NullInt64
	var coverData []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT `+workColumns+` FROM works WHERE id = $1`,
		id,
	).Scan(
		&work.ID, &work.Title, &work.Category,
		&creator, &description, &publicationYear,
		&coverData, &coverMime,
		&work.CreatedAt, &work.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("作品の取得に失敗しました: %w", err)
	}

	work.Creator = nullStringValue(creator)
	work.Description = nullStringValue(description)
	work.PublicationYear = int(publicationYear.Int64)
	work.CoverData = coverData
	work.CoverMime = nullStringValue(coverMime)

	return work, nil
}

// List は全作品を投票数付きで返す。created_at降順。
func (r *PostgresWorkRepo) List(ctx context.Context) ([]model.WorkWithVotes, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.title, w.category, w.creator, w.description, w.publication_year,
		        w.cover_data, w.cover_mime, w.created_at, w.updated_at,
		        COUNT(v.id) AS vote_count
		 FROM works w
		 LEFT JOIN votes v ON v.work_id = w.id
		 GROUP BY w.id
		 ORDER BY w.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("作品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanWorksWithVotes(rows)
}

// FindSpotlight は全カテゴリを通して最多得票の作品を1件返す。
// 作品が存在しない場合はnilを返す。得票数が同数の場合は作成日時の新しい方を優先する。
func (r *PostgresWorkRepo) FindSpotlight(ctx context.Context) (*model.WorkWithVotes, error) {
	work := model.WorkWithVotes{}
	var creator, description, coverMime sql.NullString
	var publicationYear sql.NullInt64
	var coverData []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT w.id, w.title, w.category, w.creator, w.description, w.publication_year,
		        w.cover_data, w.cover_mime, w.created_at, w.updated_at,
		        COUNT(v.id) AS vote_count
		 FROM works w
		 LEFT JOIN votes v ON v.work_id = w.id
		 GROUP BY w.id
		 ORDER BY vote_count DESC, w.created_at DESC
		 LIMIT 1`,
	).Scan(
		&work.ID, &work.Title, &work.Category,
		&creator, &description, &publicationYear,
		&coverData, &coverMime,
		&work.CreatedAt, &work.UpdatedAt,
		&work.VoteCount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("注目作品の取得に失敗しました: %w", err)
	}

	work.Creator = nullStringValue(creator)
	work.Description = nullStringValue(description)
	work.PublicationYear = int(publicationYear.Int64)
	work.CoverData = coverData
	work.CoverMime = nullStringValue(coverMime)

	return &work, nil
}

// ListTopByCategory は指定カテゴリの作品を得票数降順で最大limit件返す。
func (r *PostgresWorkRepo) ListTopByCategory(ctx context.Context, category model.Category, limit int) ([]model.WorkWithVotes, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.title, w.category, w.creator, w.description, w.publication_year,
		        w.cover_data, w.cover_mime, w.created_at, w.updated_at,
		        COUNT(v.id) AS vote_count
		 FROM works w
		 LEFT JOIN votes v ON v.work_id = w.id
		 WHERE w.category = $1
		 GROUP BY w.id
		 ORDER BY vote_count DESC, w.created_at DESC
		 LIMIT $2`,
		category, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別ランキングの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanWorksWithVotes(rows)
}

// Create は作品を作成する。
func (r *PostgresWorkRepo) Create(ctx context.Context, work *model.Work) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO works (id, title, category, creator, description, publication_year,
		                    cover_data, cover_mime, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		work.ID, work.Title, work.Category,
		nullString(work.Creator), nullString(work.Description), nullInt(work.PublicationYear),
		work.CoverData, nullString(work.CoverMime),
		work.CreatedAt, work.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("作品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は作品情報を上書き更新する。
func (r *PostgresWorkRepo) Update(ctx context.Context, work *model.Work) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE works SET
		    title = $2, category = $3, creator = $4, description = $5,
		    publication_year = $6, cover_data = $7, cover_mime = $8, updated_at = $9
		 WHERE id = $1`,
		work.ID, work.Title, work.Category,
		nullString(work.Creator), nullString(work.Description), nullInt(work.PublicationYear),
		work.CoverData, nullString(work.CoverMime),
		work.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("作品の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの作品を削除する。関連する投票はCASCADE削除される。
func (r *PostgresWorkRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM works WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("作品の削除に失敗しました: %w", err)
	}
	return nil
}

// scanWorksWithVotes は投票数付き作品の行走査を共通化する。
func scanWorksWithVotes(rows *sql.Rows) ([]model.WorkWithVotes, error) {
	var works []model.WorkWithVotes
	for rows.Next() {
		work := model.WorkWithVotes{}
		var creator, description, coverMime sql.NullString
		var publicationYear sql.NullInt64
		var coverData []byte

		if err := rows.Scan(
			&work.ID, &work.Title, &work.Category,
			&creator, &description, &publicationYear,
			&coverData, &coverMime,
			&work.CreatedAt, &work.UpdatedAt,
			&work.VoteCount,
		); err != nil {
			return nil, fmt.Errorf("作品の読み取りに失敗しました: %w", err)
		}

		work.Creator = nullStringValue(creator)
		work.Description = nullStringValue(description)
		work.PublicationYear = int(publicationYear.Int64)
		work.CoverData = coverData
		work.CoverMime = nullStringValue(coverMime)

		works = append(works, work)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("作品の走査に失敗しました: %w", err)
	}
	return works, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullInt はゼロ値をsql.NullInt64に変換する。
func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// compile-time interface check
var _ WorkRepository = (*PostgresWorkRepo)(nil)
