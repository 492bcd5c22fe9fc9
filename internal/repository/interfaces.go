// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/shareit/internal/model"
)

// Page はオフセットベースのページネーションを表す。
// オリジナルの from/size パラメータから NewPage で構築する。
type Page struct {
	Offset int
	Limit  int
}

// NewPage はfrom（0始まりのオフセット）とsize（ページ長）からPageを構築する。
// ページ番号は from/size の整数除算で求める（from=5, size=10 は先頭ページ）。
func NewPage(from, size int) Page {
	page := from / size
	return Page{
		Offset: page * size,
		Limit:  size,
	}
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// メールアドレスの一意性チェックに使用する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindAll は全ユーザーをID昇順で返す。
	FindAll(ctx context.Context) ([]model.User, error)

	// Create はユーザーを作成し、採番されたIDをuserに設定する。
	// メールアドレス重複の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーを上書き更新する。
	// メールアドレス重複の場合はErrDuplicateEmailを返す。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連する物品・予約・コメント・リクエストはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// ItemRepository は物品データの永続化インターフェース。
type ItemRepository interface {
	// FindByID は指定IDの物品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Item, error)

	// Create は物品を作成し、採番されたIDをitemに設定する。
	Create(ctx context.Context, item *model.Item) error

	// Update は物品を上書き更新する。
	Update(ctx context.Context, item *model.Item) error

	// ListIDsByOwner は所有者の物品IDをID昇順・ページネーション付きで返す。
	ListIDsByOwner(ctx context.Context, ownerID int64, page Page) ([]int64, error)

	// Search は名前または説明にtextを含む貸し出し可能な物品を返す。
	// 大文字小文字を区別しない。ID昇順・ページネーション付き。
	Search(ctx context.Context, text string, page Page) ([]model.Item, error)

	// ListByRequestID は指定リクエストに応えて出品された物品をID昇順で返す。
	ListByRequestID(ctx context.Context, requestID int64) ([]model.Item, error)
}

// BookingRepository は予約データの永続化インターフェース。
// 絞り込み一覧は開始日時の降順で返す。
type BookingRepository interface {
	// Create は予約を作成し、採番されたIDをbookingに設定する。
	Create(ctx context.Context, booking *model.Booking) error

	// FindByID は指定IDの予約を物品・予約者付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.EnrichedBooking, error)

	// LockForDecision はトランザクション内で予約行を排他ロックして取得する。
	// 承認処理のread-check-write順序を予約ID単位で直列化するために使用する。
	// 見つからない場合はnilを返す。
	LockForDecision(ctx context.Context, tx *sql.Tx, id int64) (*model.EnrichedBooking, error)

	// UpdateStatusTx はトランザクション内で予約の状態を更新する。
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error

	// IncrementRentalsTx はトランザクション内で物品の貸し出し累計数を1増やす。
	IncrementRentalsTx(ctx context.Context, tx *sql.Tx, itemID int64) error

	// ListByBooker は予約者の予約一覧をstateで絞り込んで返す。
	// 時間窓（CURRENT/PAST/FUTURE）はnowを基準に評価する。
	ListByBooker(ctx context.Context, bookerID int64, state model.BookingState, now time.Time, page Page) ([]model.EnrichedBooking, error)

	// ListByOwner は所有物品に対する予約一覧をstateで絞り込んで返す。
	ListByOwner(ctx context.Context, ownerID int64, state model.BookingState, now time.Time, page Page) ([]model.EnrichedBooking, error)

	// FindLastForItem は物品の直近の承認済み予約（start < now、startの降順で先頭）を返す。
	// 該当がない場合はnilを返す。
	FindLastForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error)

	// FindNextForItem は物品の直後の承認済み予約（start > now、startの昇順で先頭）を返す。
	// 該当がない場合はnilを返す。
	FindNextForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error)

	// HasCompletedBooking は予約者が物品の貸し出しを完了済み
	// （status=APPROVEDかつend < now）かどうかを返す。
	HasCompletedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成し、採番されたIDをcommentに設定する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByItem は物品のコメント一覧を投稿者名付き・作成日時の昇順で返す。
	ListByItem(ctx context.Context, itemID int64) ([]model.CommentWithAuthor, error)
}

// RequestRepository はリクエストデータの永続化インターフェース。
type RequestRepository interface {
	// Create はリクエストを作成し、採番されたIDをrequestに設定する。
	Create(ctx context.Context, request *model.ItemRequest) error

	// FindByID は指定IDのリクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.ItemRequest, error)

	// ListByRequester は指定ユーザーが作成したリクエストを作成日時の降順で返す。
	ListByRequester(ctx context.Context, requesterID int64) ([]model.ItemRequest, error)

	// ListOthers は指定ユーザー以外が作成したリクエストを
	// 作成日時の降順・ページネーション付きで返す。
	ListOthers(ctx context.Context, requesterID int64, page Page) ([]model.ItemRequest, error)
}

// TxRunner は一連のリポジトリ操作を単一トランザクションで実行する。
type TxRunner interface {
	// InTx はfnをトランザクション内で実行する。
	// fnがエラーを返した場合はロールバックし、正常終了した場合はコミットする。
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}
