// Package profile はプロファイル管理（一覧・ロール変更・無効化）のドメインロジックを提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
)

// Service はプロファイル管理のサービス層。
// ロール変更・無効化は管理者専用の操作で、最後の管理者を失わないよう保護する。
type Service struct {
	profiles repository.ProfileRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profiles repository.ProfileRepository) *Service {
	return &Service{
		profiles: profiles,
	}
}

// List は全プロファイルを作成日時の昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロファイル一覧の取得に失敗しました: %w", err)
	}
	return profiles, nil
}

// ChangeRole はプロファイルのロールを変更し、更新後のプロファイルを返す。
// 最後の有効な管理者を降格しようとした場合はエラーを返す。
func (s *Service) ChangeRole(ctx context.Context, id string, role model.Role) (*model.Profile, error) {
	if !role.Valid() {
		return nil, model.NewInvalidRoleError(string(role))
	}

	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロファイルの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(id)
	}

	if profile.Role == role {
		return profile, nil
	}

	// 有効な管理者の降格は、他に有効な管理者が残る場合のみ許可する
	if profile.Role == model.RoleAdmin && profile.Active {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.profiles.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewProfileNotFoundError(id)
		}
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}

	slog.Info("profile role changed",
		slog.String("profile_id", id),
		slog.String("from", string(profile.Role)),
		slog.String("to", string(role)),
	)

	profile.Role = role
	profile.UpdatedAt = time.Now()
	return profile, nil
}

// SetActive はプロファイルの有効状態を変更し、更新後のプロファイルを返す。
// 無効化はソフトデリートであり、最後の有効な管理者には適用できない。
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*model.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロファイルの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(id)
	}

	if profile.Active == active {
		return profile, nil
	}

	if !active && profile.Role == model.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.profiles.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewProfileNotFoundError(id)
		}
		return nil, fmt.Errorf("有効状態の更新に失敗しました: %w", err)
	}

	slog.Info("profile active changed",
		slog.String("profile_id", id),
		slog.Bool("active", active),
	)

	profile.Active = active
	profile.UpdatedAt = time.Now()
	return profile, nil
}

// ensureNotLastAdmin は有効な管理者が2人以上いることを確認する。
func (s *Service) ensureNotLastAdmin(ctx context.Context) error {
	count, err := s.profiles.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("管理者数の取得に失敗しました: %w", err)
	}
	if count <= 1 {
		return model.NewLastAdminError()
	}
	return nil
}
