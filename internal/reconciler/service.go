// Package reconciler はアカウントとプロファイルの1:1対応を維持する整合処理を提供する。
// プロファイルは通常DBトリガーが作成するため、ここはフォールバック経路となる。
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/regiman/internal/metrics"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
)

// Service はプロファイル整合のサービス層。
type Service struct {
	profiles   repository.ProfileRepository
	identities repository.IdentityRepository
	recorder   metrics.Recorder
}

// NewService はServiceを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewService(
	profiles repository.ProfileRepository,
	identities repository.IdentityRepository,
	recorder metrics.Recorder,
) *Service {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Service{
		profiles:   profiles,
		identities: identities,
		recorder:   recorder,
	}
}

// OnIdentityCreated はアカウント作成イベントを受けてデフォルトプロファイルを作成する。
// トリガーが先に作成していた場合（一意制約違反）は成功として扱う。
func (s *Service) OnIdentityCreated(ctx context.Context, identityID, email, fullName string) error {
	err := s.profiles.Create(ctx, defaultProfile(identityID, email, fullName))
	if err == nil {
		s.recorder.RecordProfilesCreated(1)
		slog.Info("profile created",
			slog.String("profile_id", identityID),
			slog.String("source", "listener"),
		)
		return nil
	}

	if errors.Is(err, repository.ErrConflict) {
		// トリガー側が先に作成済み。氏名だけは反映を試みる。
		if fullName != "" {
			if err := s.profiles.UpdateFullName(ctx, identityID, fullName); err != nil {
				slog.Warn("氏名の反映に失敗しました",
					slog.String("profile_id", identityID),
					slog.String("error", err.Error()),
				)
			}
		}
		return nil
	}

	s.recorder.RecordReconcileFailure()
	return fmt.Errorf("プロファイルの作成に失敗しました: %w", err)
}

// OnIdentityEmailChanged はメールアドレス変更イベントをプロファイルへ反映する。
// プロファイルが存在しない場合はエラーを返し、再試行はしない。
func (s *Service) OnIdentityEmailChanged(ctx context.Context, identityID, newEmail string) error {
	if err := s.profiles.UpdateEmail(ctx, identityID, newEmail); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recorder.RecordReconcileFailure()
			return model.NewProfileNotFoundError(identityID)
		}
		s.recorder.RecordReconcileFailure()
		return fmt.Errorf("プロファイルのメールアドレス更新に失敗しました: %w", err)
	}

	slog.Info("profile email synced", slog.String("profile_id", identityID))
	return nil
}

// ReconcileAll はプロファイルを持たない全アカウントを走査し、不足分を作成する。
// 冪等であり、既にプロファイルが存在する行は作成済みとして数えず変更もしない。
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	s.recorder.RecordReconcileRun()

	identities, err := s.identities.ListWithoutProfile(ctx)
	if err != nil {
		s.recorder.RecordReconcileFailure()
		return 0, fmt.Errorf("未整合アカウントの取得に失敗しました: %w", err)
	}

	created := 0
	for _, identity := range identities {
		err := s.profiles.Create(ctx, defaultProfile(identity.ID, identity.Email, ""))
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// 走査との競合で既に作成されていた
				continue
			}
			s.recorder.RecordReconcileFailure()
			s.recorder.RecordProfilesCreated(created)
			return created, fmt.Errorf("プロファイルの作成に失敗しました: %w", err)
		}
		created++
	}

	s.recorder.RecordProfilesCreated(created)
	slog.Info("整合処理が完了しました",
		slog.Int("scanned", len(identities)),
		slog.Int("created", created),
	)

	return created, nil
}

// ReconcileOne は指定メールアドレスのアカウントについてプロファイルの存在を保証する。
// アカウント自体が存在しない場合はエラーとなり、何も作成しない。
func (s *Service) ReconcileOne(ctx context.Context, email string) error {
	s.recorder.RecordReconcileRun()

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		s.recorder.RecordReconcileFailure()
		return fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if identity == nil {
		return model.NewIdentityNotFoundError(email)
	}

	err = s.profiles.Create(ctx, defaultProfile(identity.ID, identity.Email, ""))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			slog.Info("profile already present", slog.String("profile_id", identity.ID))
			return nil
		}
		s.recorder.RecordReconcileFailure()
		return fmt.Errorf("プロファイルの作成に失敗しました: %w", err)
	}

	s.recorder.RecordProfilesCreated(1)
	slog.Info("profile created",
		slog.String("profile_id", identity.ID),
		slog.String("source", "reconcile"),
	)

	return nil
}

// defaultProfile は新規アカウントの初期プロファイルを構築する。
// ロールはstaff、状態は有効で開始する。
func defaultProfile(identityID, email, fullName string) *model.Profile {
	now := time.Now()
	return &model.Profile{
		ID:        identityID,
		Email:     email,
		FullName:  fullName,
		Role:      model.RoleStaff,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
