// Package model はドメインモデルを定義する。
package model

import "time"

// BookingStatus は予約の承認状態を表す。
type BookingStatus string

const (
	// BookingStatusWaiting は所有者の承認待ち状態。
	BookingStatusWaiting BookingStatus = "WAITING"
	// BookingStatusApproved は所有者が承認した状態。
	BookingStatusApproved BookingStatus = "APPROVED"
	// BookingStatusRejected は所有者が却下した状態。
	BookingStatusRejected BookingStatus = "REJECTED"
)

// Booking は物品の予約を表す。
// 状態遷移はWAITING→APPROVEDまたはWAITING→REJECTEDの1回のみ。
type Booking struct {
	ID       int64
	ItemID   int64
	BookerID int64
	Start    time.Time
	End      time.Time
	Status   BookingStatus
}

// IsDecided は予約が承認または却下済みかどうかを返す。
func (b *Booking) IsDecided() bool {
	return b.Status != BookingStatusWaiting
}

// IsFinished は指定時刻において貸し出しが完了しているかどうかを返す。
func (b *Booking) IsFinished(now time.Time) bool {
	return b.Status == BookingStatusApproved && b.End.Before(now)
}

// EnrichedBooking は予約に物品と予約者のサマリーを埋め込んだ表示用モデル。
type EnrichedBooking struct {
	Booking
	Item   Item
	Booker User
}

// BookingState は予約一覧クエリの絞り込み種別を表す。
// 値はenum名との厳密一致（大文字小文字を区別する）。
type BookingState string

const (
	// BookingStateAll は全予約を返す絞り込み。
	BookingStateAll BookingState = "ALL"
	// BookingStateCurrent は現在進行中（start < now < end）の予約を返す絞り込み。
	BookingStateCurrent BookingState = "CURRENT"
	// BookingStatePast は終了済み（end < now）の予約を返す絞り込み。
	BookingStatePast BookingState = "PAST"
	// BookingStateFuture は開始前（start > now）の予約を返す絞り込み。
	BookingStateFuture BookingState = "FUTURE"
	// BookingStateWaiting は承認待ちの予約を返す絞り込み。
	BookingStateWaiting BookingState = "WAITING"
	// BookingStateRejected は却下済みの予約を返す絞り込み。
	BookingStateRejected BookingState = "REJECTED"
)

// ParseBookingState は文字列をBookingStateに変換する。
// 未知の文字列の場合はfalseを返す。
func ParseBookingState(s string) (BookingState, bool) {
	switch BookingState(s) {
	case BookingStateAll, BookingStateCurrent, BookingStatePast,
		BookingStateFuture, BookingStateWaiting, BookingStateRejected:
		return BookingState(s), true
	default:
		return "", false
	}
}
