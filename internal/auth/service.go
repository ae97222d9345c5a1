// Package auth はメールアドレスとパスワードによるローカル認証、トークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
)

const minPasswordLength = 8

// IdentityListener はアカウントのライフサイクルイベントを受け取る。
// 認証サービス自身はリスナーの実装（プロファイル整合など）に依存しない。
type IdentityListener interface {
	// OnIdentityCreated はアカウント作成直後に同期的に呼ばれる。
	OnIdentityCreated(ctx context.Context, identityID, email, fullName string) error
	// OnIdentityEmailChanged はメールアドレス変更直後に同期的に呼ばれる。
	OnIdentityEmailChanged(ctx context.Context, identityID, newEmail string) error
}

// SessionListener はサインイン・サインアウトのイベントを受け取る。
// 実装はブロックしてはならない。
type SessionListener interface {
	HandleSessionStarted(identityID, email string)
	HandleSessionEnded()
}

// ProfileReader はサインアップ後のプロファイル読み戻しに使う読み取り専用インターフェース。
type ProfileReader interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	identities repository.IdentityRepository
	profiles   ProfileReader
	hasher     *PasswordHasher
	tokens     *TokenIssuer

	// リスナーの登録は起動時の配線でのみ行う。
	identityListeners []IdentityListener
	sessionListeners  []SessionListener
}

// NewService はServiceを生成する。
func NewService(
	identities repository.IdentityRepository,
	profiles ProfileReader,
	hasher *PasswordHasher,
	tokens *TokenIssuer,
) *Service {
	return &Service{
		identities: identities,
		profiles:   profiles,
		hasher:     hasher,
		tokens:     tokens,
	}
}

// AddIdentityListener はアカウントイベントのリスナーを登録する。
func (s *Service) AddIdentityListener(l IdentityListener) {
	s.identityListeners = append(s.identityListeners, l)
}

// AddSessionListener はセッションイベントのリスナーを登録する。
func (s *Service) AddSessionListener(l SessionListener) {
	s.sessionListeners = append(s.sessionListeners, l)
}

// SignUp は新規アカウントを作成し、トークンと作成済みプロファイルを返す。
// プロファイルはDBトリガーまたはリスナー（整合サービス）のどちらかが作成する。
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (string, *model.Profile, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return "", nil, err
	}
	if len(password) < minPasswordLength {
		return "", nil, model.NewWeakPasswordError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	identity := &model.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", nil, model.NewEmailTakenError()
		}
		return "", nil, fmt.Errorf("failed to create identity: %w", err)
	}

	slog.Info("identity created",
		slog.String("identity_id", identity.ID),
		slog.String("email", identity.Email),
	)

	// リスナーの失敗ではサインアップ自体を失敗させない。
	// トリガーが先にプロファイルを作成済みのケースがあるため、読み戻しで確定する。
	for _, l := range s.identityListeners {
		if err := l.OnIdentityCreated(ctx, identity.ID, identity.Email, fullName); err != nil {
			slog.Warn("identity listener failed",
				slog.String("identity_id", identity.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	profile, err := s.profiles.FindByID(ctx, identity.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load profile after signup: %w", err)
	}
	if profile == nil {
		return "", nil, fmt.Errorf("profile was not created for identity %s", identity.ID)
	}

	token, err := s.tokens.Issue(identity.ID, identity.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, profile, nil
}

// SignIn は認証情報を検証し、アクセストークンを発行する。
// アカウント不在とパスワード不一致は同一のエラーを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	identity, err := s.identities.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("failed to find identity: %w", err)
	}
	if identity == nil {
		return "", model.NewInvalidCredentialsError()
	}

	if !s.hasher.Compare(identity.PasswordHash, password) {
		return "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(identity.ID, identity.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user signed in", slog.String("identity_id", identity.ID))

	for _, l := range s.sessionListeners {
		l.HandleSessionStarted(identity.ID, identity.Email)
	}

	return token, nil
}

// SignOut はセッション終了をリスナーへ通知する。
// トークンはステートレスのため、破棄はクライアント側で行う。
func (s *Service) SignOut(ctx context.Context) {
	for _, l := range s.sessionListeners {
		l.HandleSessionEnded()
	}
	slog.Info("user signed out")
}

// ChangeEmail はアカウントのメールアドレスを変更し、リスナーへ通知する。
// リスナー（プロファイル側の反映）の失敗はそのまま返し、再試行はしない。
func (s *Service) ChangeEmail(ctx context.Context, identityID, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return err
	}

	if err := s.identities.UpdateEmail(ctx, identityID, newEmail); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return model.NewEmailTakenError()
		case errors.Is(err, repository.ErrNotFound):
			return model.NewIdentityNotFoundError(identityID)
		}
		return fmt.Errorf("failed to update email: %w", err)
	}

	slog.Info("email changed", slog.String("identity_id", identityID))

	for _, l := range s.identityListeners {
		if err := l.OnIdentityEmailChanged(ctx, identityID, newEmail); err != nil {
			return fmt.Errorf("failed to propagate email change: %w", err)
		}
	}

	return nil
}

// validateEmail はメールアドレスの基本形式を検証する。
func validateEmail(email string) error {
	if email == "" {
		return model.NewInvalidEmailError("メールアドレスが空です")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return model.NewInvalidEmailError("@の前後に文字が必要です")
	}
	if strings.ContainsAny(email, " \t") {
		return model.NewInvalidEmailError("空白を含めることはできません")
	}
	return nil
}
