// Package model はドメインモデルを定義する。
package model

import "time"

// Item は貸し出し対象の物品を表す。
// 所有者は作成時に確定し、以後変更されない。
type Item struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	Available   bool
	Rentals     int    // 承認済み貸し出しの累計数
	RequestID   *int64 // 出品のきっかけとなったリクエスト（任意）
}

// ItemPatch は物品の部分更新を表す。
// nilフィールドは変更せず、既存の値を維持する。
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// Apply はパッチを既存物品にフィールド単位でマージした結果を返す。
func (p ItemPatch) Apply(i Item) Item {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Available != nil {
		i.Available = *p.Available
	}
	return i
}

// Comment は完了した貸し出しに対するレビューコメントを表す。
type Comment struct {
	ID       int64
	Text     string
	ItemID   int64
	AuthorID int64
	Created  time.Time
}

// CommentWithAuthor はコメントと投稿者名を結合したモデル。
// commentsテーブルとusersテーブルをJOINして取得される。
type CommentWithAuthor struct {
	Comment
	AuthorName string
}

// ItemDetail は物品にコメントと直近の予約情報を付加した表示用モデル。
// LastBooking/NextBookingは所有者本人が参照した場合のみ設定される。
type ItemDetail struct {
	Item
	LastBooking *BookingRef
	NextBooking *BookingRef
	Comments    []CommentWithAuthor
}

// BookingRef は物品詳細に埋め込む予約への参照を表す。
type BookingRef struct {
	ID       int64
	BookerID int64
	Start    time.Time
	End      time.Time
}
