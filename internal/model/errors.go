// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 外部に公開する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeRequestNotFound    = "REQUEST_NOT_FOUND"
	ErrCodeBookingsNotFound   = "BOOKINGS_NOT_FOUND"
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeInvalidDateRange   = "INVALID_DATE_RANGE"
	ErrCodeItemUnavailable    = "ITEM_UNAVAILABLE"
	ErrCodeAlreadyDecided     = "ALREADY_DECIDED"
	ErrCodeUnknownState       = "UNKNOWN_STATE"
	ErrCodeNoCompletedBooking = "NO_COMPLETED_BOOKING"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeNotOwner           = "NOT_OWNER"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
)

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID int64) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %d", userID),
		Category: "not_found",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewItemNotFoundError は物品未検出エラーを生成する。
func NewItemNotFoundError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された物品が見つかりません: %d", itemID),
		Category: "not_found",
		Action:   "物品IDを確認してください。",
	}
}

// NewBookingNotFoundError は予約未検出エラーを生成する。
func NewBookingNotFoundError(bookingID int64) *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  fmt.Sprintf("指定された予約が見つかりません: %d", bookingID),
		Category: "not_found",
		Action:   "予約IDを確認してください。",
	}
}

// NewRequestNotFoundError はリクエスト未検出エラーを生成する。
func NewRequestNotFoundError(requestID int64) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("指定されたリクエストが見つかりません: %d", requestID),
		Category: "not_found",
		Action:   "リクエストIDを確認してください。",
	}
}

// NewBookingsNotFoundError は絞り込み結果が空の場合のエラーを生成する。
// 互換モード（BOOKINGS_EMPTY_AS_ERROR）でのみ使用される。
func NewBookingsNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBookingsNotFound,
		Message:  "条件に一致する予約が見つかりません。",
		Category: "not_found",
		Action:   "絞り込み条件を確認してください。",
	}
}

// NewAccessDeniedError は権限不足エラーを生成する。
// 互換性のため境界では404として公開されるが、内部では独立したコードを持つ。
func NewAccessDeniedError(userID int64) *APIError {
	return &APIError{
		Code:     ErrCodeAccessDenied,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %d", userID),
		Category: "not_found",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidDateRangeError は不正な日付範囲エラーを生成する。
func NewInvalidDateRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  "開始日時は終了日時より前でなければなりません。",
		Category: "validation",
		Action:   "予約期間を確認してください。",
	}
}

// NewItemUnavailableError は貸し出し不可の物品への予約エラーを生成する。
func NewItemUnavailableError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeItemUnavailable,
		Message:  fmt.Sprintf("この物品は現在貸し出しできません: %d", itemID),
		Category: "validation",
		Action:   "物品が貸し出し可能になってから再度お試しください。",
	}
}

// NewAlreadyDecidedError は承認済み予約への再承認エラーを生成する。
func NewAlreadyDecidedError(bookingID int64) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyDecided,
		Message:  fmt.Sprintf("この予約はすでに承認または却下されています: %d", bookingID),
		Category: "validation",
		Action:   "予約の現在の状態を確認してください。",
	}
}

// NewUnknownStateError は未知の絞り込み状態エラーを生成する。
func NewUnknownStateError(state string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownState,
		Message:  fmt.Sprintf("Unknown state: %s", state),
		Category: "validation",
		Action:   "stateにはALL、CURRENT、PAST、FUTURE、WAITING、REJECTEDのいずれかを指定してください。",
	}
}

// NewNoCompletedBookingError は完了済み予約なしのコメント投稿エラーを生成する。
func NewNoCompletedBookingError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeNoCompletedBooking,
		Message:  fmt.Sprintf("この物品の完了済み予約がないためコメントを投稿できません: %d", itemID),
		Category: "validation",
		Action:   "貸し出しが完了してからコメントを投稿してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("このメールアドレスはすでに使用されています: %s", email),
		Category: "conflict",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewNotOwnerError は所有者以外による物品更新エラーを生成する。
func NewNotOwnerError(userID, itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  fmt.Sprintf("ユーザー %d は物品 %d の所有者ではありません。", userID, itemID),
		Category: "not_found",
		Action:   "物品の所有者のみが更新できます。",
	}
}

// NewInvalidRequestError はリクエスト内容の検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
