// Package item は物品管理と表示用集約のドメインロジックを提供する。
package item

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/shareit/internal/model"
	"github.com/hitoshi/shareit/internal/repository"
	"github.com/hitoshi/shareit/internal/security"
)

// CreateInput は物品作成の入力を表す。
type CreateInput struct {
	Name        string
	Description string
	Available   bool
	RequestID   *int64
}

// Service は物品管理のサービス層。
// 物品の作成・更新、詳細表示の集約、検索、コメント投稿のビジネスロジックを提供する。
type Service struct {
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	bookingRepo repository.BookingRepository
	commentRepo repository.CommentRepository
	requestRepo repository.RequestRepository
	sanitizer   *security.ContentSanitizer

	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	commentRepo repository.CommentRepository,
	requestRepo repository.RequestRepository,
	sanitizer *security.ContentSanitizer,
) *Service {
	return &Service{
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		commentRepo: commentRepo,
		requestRepo: requestRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create は新しい物品を作成する。
// リクエストIDが指定された場合は対象リクエストの存在を検証する。
func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (*model.Item, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("所有者の取得に失敗しました: %w", err)
	}
	if owner == nil {
		return nil, model.NewUserNotFoundError(ownerID)
	}

	name := s.sanitizer.Sanitize(input.Name)
	description := s.sanitizer.Sanitize(input.Description)
	if name == "" {
		return nil, model.NewInvalidRequestError("物品名は必須です")
	}
	if description == "" {
		return nil, model.NewInvalidRequestError("説明は必須です")
	}

	if input.RequestID != nil {
		req, err := s.requestRepo.FindByID(ctx, *input.RequestID)
		if err != nil {
			return nil, fmt.Errorf("リクエストの取得に失敗しました: %w", err)
		}
		if req == nil {
			return nil, model.NewRequestNotFoundError(*input.RequestID)
		}
	}

	item := &model.Item{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Available:   input.Available,
		RequestID:   input.RequestID,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("物品の作成に失敗しました: %w", err)
	}

	return item, nil
}

// Update は物品をフィールド単位で部分更新する。
// 更新できるのは所有者本人のみ。nilフィールドは既存の値を維持する。
func (s *Service) Update(ctx context.Context, userID, itemID int64, patch model.ItemPatch) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}
	if item.OwnerID != userID {
		return nil, model.NewNotOwnerError(userID, itemID)
	}

	if patch.Name != nil {
		name := s.sanitizer.Sanitize(*patch.Name)
		if name == "" {
			return nil, model.NewInvalidRequestError("物品名を空にすることはできません")
		}
		patch.Name = &name
	}
	if patch.Description != nil {
		description := s.sanitizer.Sanitize(*patch.Description)
		if description == "" {
			return nil, model.NewInvalidRequestError("説明を空にすることはできません")
		}
		patch.Description = &description
	}

	updated := patch.Apply(*item)
	if err := s.itemRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("物品の更新に失敗しました: %w", err)
	}

	return &updated, nil
}

// GetDetail は物品の詳細をコメントと直近予約情報付きで返す。
// 直近・直後の予約は所有者本人が参照した場合のみ設定される。
func (s *Service) GetDetail(ctx context.Context, userID, itemID int64) (*model.ItemDetail, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	return s.buildDetail(ctx, item, item.OwnerID == userID)
}

// ListByOwner は所有者の物品一覧を詳細付き・ID昇順で返す。
// 所有者本人の一覧のため、各物品に直近・直後の予約情報を含む。
func (s *Service) ListByOwner(ctx context.Context, ownerID int64, from, size int) ([]model.ItemDetail, error) {
	ids, err := s.itemRepo.ListIDsByOwner(ctx, ownerID, repository.NewPage(from, size))
	if err != nil {
		return nil, fmt.Errorf("所有物品一覧の取得に失敗しました: %w", err)
	}

	details := make([]model.ItemDetail, 0, len(ids))
	for _, id := range ids {
		item, err := s.itemRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
		}
		if item == nil {
			continue
		}

		detail, err := s.buildDetail(ctx, item, true)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}

	return details, nil
}

// buildDetail は物品にコメント一覧と（所有者視点の場合）直近予約情報を付加する。
func (s *Service) buildDetail(ctx context.Context, item *model.Item, ownerView bool) (*model.ItemDetail, error) {
	detail := &model.ItemDetail{Item: *item}

	comments, err := s.commentRepo.ListByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	if comments == nil {
		comments = []model.CommentWithAuthor{}
	}
	detail.Comments = comments

	if ownerView {
		now := s.now()
		last, err := s.bookingRepo.FindLastForItem(ctx, item.ID, now)
		if err != nil {
			return nil, fmt.Errorf("直近予約の取得に失敗しました: %w", err)
		}
		next, err := s.bookingRepo.FindNextForItem(ctx, item.ID, now)
		if err != nil {
			return nil, fmt.Errorf("直後予約の取得に失敗しました: %w", err)
		}
		detail.LastBooking = last
		detail.NextBooking = next
	}

	return detail, nil
}

// Search は名前または説明にtextを含む貸し出し可能な物品を返す。
// 空白のみの検索語はストアに問い合わせず空の一覧を返す。
func (s *Service) Search(ctx context.Context, text string, from, size int) ([]model.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Item{}, nil
	}

	items, err := s.itemRepo.Search(ctx, text, repository.NewPage(from, size))
	if err != nil {
		return nil, fmt.Errorf("物品の検索に失敗しました: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}

	return items, nil
}

// CreateComment は完了済みの貸し出しに対するコメントを投稿する。
// 投稿できるのは対象物品の貸し出しを完了した予約者のみ。
func (s *Service) CreateComment(ctx context.Context, authorID, itemID int64, text string) (*model.CommentWithAuthor, error) {
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("投稿者の取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError(authorID)
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	sanitized := s.sanitizer.Sanitize(text)
	if sanitized == "" {
		return nil, model.NewInvalidRequestError("コメント本文は必須です")
	}

	completed, err := s.bookingRepo.HasCompletedBooking(ctx, itemID, authorID, s.now())
	if err != nil {
		return nil, fmt.Errorf("完了済み予約の確認に失敗しました: %w", err)
	}
	if !completed {
		return nil, model.NewNoCompletedBookingError(itemID)
	}

	comment := &model.Comment{
		Text:     sanitized,
		ItemID:   itemID,
		AuthorID: authorID,
		Created:  s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	return &model.CommentWithAuthor{
		Comment:    *comment,
		AuthorName: author.Name,
	}, nil
}
