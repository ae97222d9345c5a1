// Package session は現在のサインイン状態を保持する明示的なコンテキストオブジェクトを提供する。
// 認証プロバイダーのイベントで更新され、権限評価とナビゲーションが読み取る。
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/regiman/internal/model"
)

// ProfileLoader はセッション確立時のプロファイル読み込みインターフェース。
type ProfileLoader interface {
	// FindByID は指定IDのプロファイルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// State は現在のセッション状態を保持する。
// セッションイベントは非同期に着信するため、プロファイル読み込みは
// キャンセル可能なバックグラウンド処理として実行し、
// 世代番号の照合により常に最後に着信したイベントの結果だけを反映する。
type State struct {
	mu         sync.Mutex
	identityID string
	email      string
	profile    *model.Profile

	// generation はイベント着信順の世代番号。
	// 追い越された読み込み結果は、完了がいくら遅れても反映されない。
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	loader ProfileLoader
	logger *slog.Logger
}

// NewState はStateを生成する。
func NewState(loader ProfileLoader, logger *slog.Logger) *State {
	return &State{loader: loader, logger: logger}
}

// HandleSessionStarted はセッション開始イベントを処理する。
// identityを記録し、プロファイルをバックグラウンドで読み込む。
// 先行する読み込みが実行中の場合はキャンセルし、後着のイベントが常に勝つ。
func (s *State) HandleSessionStarted(identityID, email string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.identityID = identityID
	s.email = email
	s.profile = nil

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.loadProfile(ctx, gen, identityID)
}

// HandleSessionEnded はセッション終了イベントを処理する。
// 実行中の読み込みをキャンセルし、identityとプロファイルを破棄する。
func (s *State) HandleSessionEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.identityID = ""
	s.email = ""
	s.profile = nil
}

// loadProfile はプロファイルを読み込み、世代が一致する場合のみ反映する。
func (s *State) loadProfile(ctx context.Context, gen uint64, identityID string) {
	defer s.wg.Done()

	profile, err := s.loader.FindByID(ctx, identityID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// 後続のセッションイベントに追い越された結果は破棄する
	if gen != s.generation {
		return
	}

	if err != nil {
		// 読み込み失敗時はプロファイルをnilのままにし、権限チェックは全て失敗する。
		// 自動リトライはしない。
		s.logger.Warn("profile load failed",
			slog.String("identity_id", identityID),
			slog.String("error", err.Error()),
		)
		return
	}
	if profile == nil {
		s.logger.Warn("profile not found for session",
			slog.String("identity_id", identityID),
		)
		return
	}

	s.profile = profile
}

// Authenticated は識別済みのセッションが存在するかどうかを返す。
func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityID != ""
}

// IdentityID は現在のidentity IDを返す。未認証の場合は空文字。
func (s *State) IdentityID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityID
}

// Email は現在のセッションのメールアドレスを返す。
func (s *State) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// Profile は読み込み済みのプロファイルを返す。
// 未読み込み・読み込み失敗・セッション無しの場合はnil。
func (s *State) Profile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Role は現在のロールを返す。
// プロファイル未読み込み、または無効化されたプロファイルの場合は空文字を返し、
// 権限チェックは全て失敗する（フェイルクローズド）。
func (s *State) Role() model.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil || !s.profile.Active {
		return ""
	}
	return s.profile.Role
}

// WaitIdle は実行中のプロファイル読み込みが完了するまでブロックする。テスト用。
func (s *State) WaitIdle() {
	s.wg.Wait()
}
