// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/shareit/internal/model"
	"github.com/hitoshi/shareit/internal/repository"
)

// Service はユーザー管理のサービス層。
// メールアドレスの一意性を含むCRUDのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Create は新しいユーザーを作成する。
// メールアドレスが既存ユーザーと重複する場合はエラーを返す。
func (s *Service) Create(ctx context.Context, name, email string) (*model.User, error) {
	u := &model.User{Name: name, Email: email}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError(email)
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	return u, nil
}

// GetByID は指定IDのユーザーを返す。
func (s *Service) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	return u, nil
}

// List は全ユーザーをID昇順で返す。
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}

	return users, nil
}

// Update はユーザーをフィールド単位で部分更新する。
// メールアドレスを変更する場合は他ユーザーとの重複を事前に検証する。
func (s *Service) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	if patch.Email != nil && *patch.Email != existing.Email {
		inUse, err := s.userRepo.FindByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
		}
		if inUse != nil && inUse.ID != id {
			return nil, model.NewDuplicateEmailError(*patch.Email)
		}
	}

	updated := patch.Apply(*existing)
	if err := s.userRepo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError(updated.Email)
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	return &updated, nil
}

// Delete は指定IDのユーザーを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewUserNotFoundError(id)
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	return nil
}
