// Package booking は予約管理のドメインロジックを提供する。
package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/shareit/internal/model"
	"github.com/hitoshi/shareit/internal/repository"
)

// CreateInput は予約作成の入力を表す。
type CreateInput struct {
	ItemID int64
	Start  time.Time
	End    time.Time
}

// Service は予約管理のサービス層。
// 予約の作成、承認・却下、一覧取得のビジネスロジックを提供する。
type Service struct {
	bookingRepo repository.BookingRepository
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	tx          repository.TxRunner

	// emptyListAsError が真の場合、絞り込み結果が空の一覧をエラーとして返す。
	// 旧クライアントとの互換モード。
	emptyListAsError bool

	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	bookingRepo repository.BookingRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	tx repository.TxRunner,
	emptyListAsError bool,
) *Service {
	return &Service{
		bookingRepo:      bookingRepo,
		itemRepo:         itemRepo,
		userRepo:         userRepo,
		tx:               tx,
		emptyListAsError: emptyListAsError,
		now:              time.Now,
	}
}

// Create は新しい予約をWAITING状態で作成する。
// 予約者の存在、期間の妥当性、物品の存在と貸し出し可否を順に検証する。
// 自己所有物品への予約は予約者未検出として扱う。
func (s *Service) Create(ctx context.Context, bookerID int64, input CreateInput) (*model.EnrichedBooking, error) {
	booker, err := s.userRepo.FindByID(ctx, bookerID)
	if err != nil {
		return nil, fmt.Errorf("予約者の取得に失敗しました: %w", err)
	}
	if booker == nil {
		return nil, model.NewUserNotFoundError(bookerID)
	}

	// 開始は終了より厳密に前でなければならない（同時刻も不可）
	if !input.Start.Before(input.End) {
		return nil, model.NewInvalidDateRangeError()
	}

	item, err := s.itemRepo.FindByID(ctx, input.ItemID)
	if err != nil {
		return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(input.ItemID)
	}
	if !item.Available {
		return nil, model.NewItemUnavailableError(input.ItemID)
	}
	if item.OwnerID == bookerID {
		return nil, model.NewAccessDeniedError(bookerID)
	}

	b := &model.Booking{
		ItemID:   input.ItemID,
		BookerID: bookerID,
		Start:    input.Start,
		End:      input.End,
		Status:   model.BookingStatusWaiting,
	}
	if err := s.bookingRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	return &model.EnrichedBooking{
		Booking: *b,
		Item:    *item,
		Booker:  *booker,
	}, nil
}

// Confirm は承認待ちの予約を承認または却下する。
// 予約行をロックして状態を検証し、同一予約への並行承認を直列化する。
// 承認時は物品の貸し出し累計数を同一トランザクション内で加算する。
func (s *Service) Confirm(ctx context.Context, ownerID, bookingID int64, approved bool) (*model.EnrichedBooking, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError(ownerID)
	}

	status := model.BookingStatusRejected
	if approved {
		status = model.BookingStatusApproved
	}

	var eb *model.EnrichedBooking
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		eb, err = s.bookingRepo.LockForDecision(ctx, tx, bookingID)
		if err != nil {
			return fmt.Errorf("予約の取得に失敗しました: %w", err)
		}
		if eb == nil {
			return model.NewBookingNotFoundError(bookingID)
		}
		if eb.Item.OwnerID != ownerID {
			return model.NewAccessDeniedError(ownerID)
		}
		if eb.IsDecided() {
			return model.NewAlreadyDecidedError(bookingID)
		}

		if err := s.bookingRepo.UpdateStatusTx(ctx, tx, bookingID, status); err != nil {
			return fmt.Errorf("予約状態の更新に失敗しました: %w", err)
		}
		if approved {
			if err := s.bookingRepo.IncrementRentalsTx(ctx, tx, eb.ItemID); err != nil {
				return fmt.Errorf("貸し出し累計数の更新に失敗しました: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eb.Status = status
	if approved {
		eb.Item.Rentals++
	}

	return eb, nil
}

// GetByID は指定IDの予約を返す。
// 参照できるのは予約者本人と物品の所有者のみ。それ以外には予約の存在を開示しない。
func (s *Service) GetByID(ctx context.Context, userID, bookingID int64) (*model.EnrichedBooking, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	eb, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if eb == nil {
		return nil, model.NewBookingNotFoundError(bookingID)
	}
	if eb.BookerID != userID && eb.Item.OwnerID != userID {
		return nil, model.NewAccessDeniedError(userID)
	}

	return eb, nil
}

// ListByBooker は予約者の予約一覧をstateで絞り込んで返す。開始日時の降順。
func (s *Service) ListByBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]model.EnrichedBooking, error) {
	parsed, err := s.prepareList(ctx, bookerID, state)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByBooker(ctx, bookerID, parsed, s.now(), repository.NewPage(from, size))
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	return s.applyEmptyPolicy(bookings)
}

// ListByOwner は所有物品に対する予約一覧をstateで絞り込んで返す。開始日時の降順。
func (s *Service) ListByOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]model.EnrichedBooking, error) {
	parsed, err := s.prepareList(ctx, ownerID, state)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByOwner(ctx, ownerID, parsed, s.now(), repository.NewPage(from, size))
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}

	return s.applyEmptyPolicy(bookings)
}

// prepareList は一覧取得の共通前処理（ユーザー存在確認とstateの解析）を行う。
func (s *Service) prepareList(ctx context.Context, userID int64, state string) (model.BookingState, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return "", model.NewUserNotFoundError(userID)
	}

	parsed, ok := model.ParseBookingState(state)
	if !ok {
		return "", model.NewUnknownStateError(state)
	}

	return parsed, nil
}

// applyEmptyPolicy は空の一覧に互換モードのエラーポリシーを適用する。
func (s *Service) applyEmptyPolicy(bookings []model.EnrichedBooking) ([]model.EnrichedBooking, error) {
	if len(bookings) == 0 {
		if s.emptyListAsError {
			return nil, model.NewBookingsNotFoundError()
		}
		return []model.EnrichedBooking{}, nil
	}
	return bookings, nil
}
