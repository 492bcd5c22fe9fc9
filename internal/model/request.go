// Package model はドメインモデルを定義する。
package model

import "time"

// ItemRequest は「こういう物品を貸してほしい」という要望を表す。
// 後から出品された物品が任意でこのリクエストを参照する。
type ItemRequest struct {
	ID          int64
	Description string
	RequesterID int64
	Created     time.Time
}

// ItemRequestWithItems はリクエストとそれに応えて出品された物品の一覧を結合したモデル。
type ItemRequestWithItems struct {
	ItemRequest
	Items []Item
}
