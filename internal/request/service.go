// Package request は物品リクエスト管理のドメインロジックを提供する。
package request

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/shareit/internal/model"
	"github.com/hitoshi/shareit/internal/repository"
	"github.com/hitoshi/shareit/internal/security"
)

// Service は物品リクエスト管理のサービス層。
// リクエストの作成と、応答物品付きの一覧・詳細取得を提供する。
type Service struct {
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	itemRepo    repository.ItemRepository
	sanitizer   *security.ContentSanitizer

	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	requestRepo repository.RequestRepository,
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
	sanitizer *security.ContentSanitizer,
) *Service {
	return &Service{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		itemRepo:    itemRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Create は新しいリクエストを作成する。作成日時はサーバー側で設定する。
func (s *Service) Create(ctx context.Context, requesterID int64, description string) (*model.ItemRequest, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("リクエスト者の取得に失敗しました: %w", err)
	}
	if requester == nil {
		return nil, model.NewUserNotFoundError(requesterID)
	}

	sanitized := s.sanitizer.Sanitize(description)
	if sanitized == "" {
		return nil, model.NewInvalidRequestError("リクエストの説明は必須です")
	}

	req := &model.ItemRequest{
		Description: sanitized,
		RequesterID: requesterID,
		Created:     s.now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	return req, nil
}

// ListOwn は指定ユーザーが作成したリクエストを応答物品付き・作成日時の降順で返す。
func (s *Service) ListOwn(ctx context.Context, requesterID int64) ([]model.ItemRequestWithItems, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("リクエスト者の取得に失敗しました: %w", err)
	}
	if requester == nil {
		return nil, model.NewUserNotFoundError(requesterID)
	}

	requests, err := s.requestRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗しました: %w", err)
	}

	return s.attachItems(ctx, requests)
}

// ListOthers は指定ユーザー以外が作成したリクエストを
// 応答物品付き・作成日時の降順・ページネーション付きで返す。
func (s *Service) ListOthers(ctx context.Context, userID int64, from, size int) ([]model.ItemRequestWithItems, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	requests, err := s.requestRepo.ListOthers(ctx, userID, repository.NewPage(from, size))
	if err != nil {
		return nil, fmt.Errorf("他ユーザーのリクエスト一覧の取得に失敗しました: %w", err)
	}

	return s.attachItems(ctx, requests)
}

// GetByID は指定IDのリクエストを応答物品付きで返す。
// 作成者以外も参照できるが、閲覧者の存在は検証する。
func (s *Service) GetByID(ctx context.Context, userID, requestID int64) (*model.ItemRequestWithItems, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("リクエストの取得に失敗しました: %w", err)
	}
	if req == nil {
		return nil, model.NewRequestNotFoundError(requestID)
	}

	items, err := s.itemRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("リクエストに対する物品一覧の取得に失敗しました: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}

	return &model.ItemRequestWithItems{
		ItemRequest: *req,
		Items:       items,
	}, nil
}

// attachItems は各リクエストに応答物品の一覧を付加する。
func (s *Service) attachItems(ctx context.Context, requests []model.ItemRequest) ([]model.ItemRequestWithItems, error) {
	results := make([]model.ItemRequestWithItems, 0, len(requests))
	for _, req := range requests {
		items, err := s.itemRepo.ListByRequestID(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("リクエストに対する物品一覧の取得に失敗しました: %w", err)
		}
		if items == nil {
			items = []model.Item{}
		}
		results = append(results, model.ItemRequestWithItems{
			ItemRequest: req,
			Items:       items,
		})
	}

	return results, nil
}
