// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/mediarank/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// List は全ユーザーをcreated_at昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentitiesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// WorkRepository は作品データの永続化インターフェース。
type WorkRepository interface {
	// FindByID は指定IDの作品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Work, error)

	// List は全作品を投票数付きで返す。created_at降順。
	List(ctx context.Context) ([]model.WorkWithVotes, error)

	// FindSpotlight は全カテゴリを通して最多得票の作品を1件返す。
	// 作品が存在しない場合はnilを返す。
	FindSpotlight(ctx context.Context) (*model.WorkWithVotes, error)

	// ListTopByCategory は指定カテゴリの作品を得票数降順で最大limit件返す。
	ListTopByCategory(ctx context.Context, category model.Category, limit int) ([]model.WorkWithVotes, error)

	// Create は作品を作成する。
	Create(ctx context.Context, work *model.Work) error

	// Update は作品情報を上書き更新する。
	Update(ctx context.Context, work *model.Work) error

	// Delete は指定IDの作品を削除する。関連する投票はCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// VoteRepository は投票データの永続化インターフェース。
type VoteRepository interface {
	// Create は投票を冪等に作成する。
	// (user_id, work_id) が既に存在する場合は何もせずinserted=falseを返す。
	// 一意性はDBのUNIQUE制約で保証され、読み取り後書き込みの競合は発生しない。
	Create(ctx context.Context, vote *model.Vote) (inserted bool, err error)

	// ExistsByUserAndWork はユーザーが作品に投票済みかを返す。
	ExistsByUserAndWork(ctx context.Context, userID, workID string) (bool, error)

	// CountByWorkID は作品の得票数を返す。
	CountByWorkID(ctx context.Context, workID string) (int, error)

	// ListByUserID はユーザーの投票一覧を作品情報付きでcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.VoteWithWork, error)

	// DeleteByUserID はユーザーの全投票を削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
