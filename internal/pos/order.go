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

// OrderInput は注文の作成・更新の入力値。
type OrderInput struct {
	// CategoryID は空文字でカテゴリ未設定を意味する。
	CategoryID string
	TotalCents int64
	// Status は作成時に空文字ならopenになる。更新時は空文字で現状維持。
	Status model.OrderStatus
	Note   string
}

// OrderService は注文（売上）管理のサービス層。
type OrderService struct {
	orders     repository.OrderRepository
	categories repository.CategoryRepository
	sanitizer  security.TextSanitizerService
}

// NewOrderService はOrderServiceの新しいインスタンスを生成する。
func NewOrderService(
	orders repository.OrderRepository,
	categories repository.CategoryRepository,
	sanitizer security.TextSanitizerService,
) *OrderService {
	return &OrderService{
		orders:     orders,
		categories: categories,
		sanitizer:  sanitizer,
	}
}

// List は全注文を作成日時の降順で返す。
func (s *OrderService) List(ctx context.Context) ([]*model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// Get は指定IDの注文を返す。
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}
	return order, nil
}

// Create は新しい注文を作成する。
// 金額は0以上、状態は省略時open。カテゴリ指定時は存在を確認する。
func (s *OrderService) Create(ctx context.Context, createdBy string, in OrderInput) (*model.Order, error) {
	if in.TotalCents < 0 {
		return nil, model.NewInvalidAmountError()
	}

	status := in.Status
	if status == "" {
		status = model.OrderStatusOpen
	}
	if !status.Valid() {
		return nil, model.NewInvalidOrderStatusError(string(in.Status))
	}

	if err := s.ensureCategoryExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &model.Order{
		ID:         uuid.New().String(),
		CategoryID: in.CategoryID,
		TotalCents: in.TotalCents,
		Status:     status,
		Note:       s.sanitizer.Sanitize(in.Note),
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("注文の作成に失敗しました: %w", err)
	}

	return order, nil
}

// Update は指定IDの注文を更新する。
// 状態が空文字の場合は現在の状態を維持し、CategoryIDが空文字の場合はカテゴリを外す。
func (s *OrderService) Update(ctx context.Context, id string, in OrderInput) (*model.Order, error) {
	if in.TotalCents < 0 {
		return nil, model.NewInvalidAmountError()
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, model.NewInvalidOrderStatusError(string(in.Status))
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(id)
	}

	if err := s.ensureCategoryExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	order.CategoryID = in.CategoryID
	order.TotalCents = in.TotalCents
	if in.Status != "" {
		order.Status = in.Status
	}
	order.Note = s.sanitizer.Sanitize(in.Note)
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewOrderNotFoundError(id)
		}
		return nil, fmt.Errorf("注文の更新に失敗しました: %w", err)
	}

	return order, nil
}

// Delete は指定IDの注文を削除する。
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewOrderNotFoundError(id)
		}
		return fmt.Errorf("注文の削除に失敗しました: %w", err)
	}
	return nil
}

// ensureCategoryExists はカテゴリ指定時にその存在を確認する。空文字は未設定として許可する。
func (s *OrderService) ensureCategoryExists(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの確認に失敗しました: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(categoryID)
	}
	return nil
}
