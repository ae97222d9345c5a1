// Package pos はレジ業務（商品カタログと注文）のドメインロジックを提供する。
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
	"github.com/hitoshi/regiman/internal/security"
)

// CategoryService は商品カテゴリ管理のサービス層。
// 自由入力テキストは保存前にサニタイズする。
type CategoryService struct {
	categories repository.CategoryRepository
	sanitizer  security.TextSanitizerService
}

// NewCategoryService はCategoryServiceの新しいインスタンスを生成する。
func NewCategoryService(
	categories repository.CategoryRepository,
	sanitizer security.TextSanitizerService,
) *CategoryService {
	return &CategoryService{
		categories: categories,
		sanitizer:  sanitizer,
	}
}

// List は全カテゴリを名前順で返す。
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// Get は指定IDのカテゴリを返す。
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return category, nil
}

// Create は新しいカテゴリを作成する。
// 名前はサニタイズ後に空であってはならない。
func (s *CategoryService) Create(ctx context.Context, name, description string) (*model.Category, error) {
	name = s.sanitizer.Sanitize(name)
	if name == "" {
		return nil, model.NewInvalidNameError("カテゴリ名")
	}

	now := time.Now()
	category := &model.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: s.sanitizer.Sanitize(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}

	return category, nil
}

// Update は指定IDのカテゴリの名前と説明を更新する。
func (s *CategoryService) Update(ctx context.Context, id, name, description string) (*model.Category, error) {
	name = s.sanitizer.Sanitize(name)
	if name == "" {
		return nil, model.NewInvalidNameError("カテゴリ名")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}

	category.Name = name
	category.Description = s.sanitizer.Sanitize(description)
	category.UpdatedAt = time.Now()

	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewCategoryNotFoundError(id)
		}
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}

	return category, nil
}

// Delete は指定IDのカテゴリを削除する。
// 参照している注文のcategory_idはDB側でNULLに戻る。
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCategoryNotFoundError(id)
		}
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	return nil
}
