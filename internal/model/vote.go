// Package model はドメインモデルを定義する。
package model

import "time"

// Vote はユーザーによる作品への投票を表す。
// 同一ユーザーは同一作品に対して最大1票。(user_id, work_id) の組は
// DBのUNIQUE制約で一意に保たれる。
type Vote struct {
	ID        string
	UserID    string
	WorkID    string
	CreatedAt time.Time
}

// VoteWithWork は作品情報付きの投票を表す。ユーザー詳細の投票履歴表示用。
type VoteWithWork struct {
	Vote
	WorkTitle    string
	WorkCategory Category
}
