// Package model はドメインモデルを定義する。
package model

import "time"

// Category は作品のカテゴリを表す。
// album / book / movie の3種のみが有効で、大文字小文字の違いや
// 前後の空白を含む値は別の文字列として扱う（正規化しない）。
type Category string

const (
	// CategoryAlbum は音楽アルバム。
	CategoryAlbum Category = "album"
	// CategoryBook は書籍。
	CategoryBook Category = "book"
	// CategoryMovie は映画。
	CategoryMovie Category = "movie"
)

// Categories は有効なカテゴリの一覧（表示順）。
var Categories = []Category{CategoryAlbum, CategoryBook, CategoryMovie}

// IsValid はカテゴリが有効な3種のいずれかと完全一致するかを返す。
func (c Category) IsValid() bool {
	switch c {
	case CategoryAlbum, CategoryBook, CategoryMovie:
		return true
	}
	return false
}

// Work はカタログに登録された作品を表す。
type Work struct {
	ID              string
	Title           string
	Category        Category
	Creator         string
	Description     string
	PublicationYear int
	CoverData       []byte
	CoverMime       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WorkWithVotes は投票数付きの作品を表す。一覧・ランキング表示用。
type WorkWithVotes struct {
	Work
	VoteCount int
}
