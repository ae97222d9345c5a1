// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/regiman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// profileContextKey はリクエストコンテキストに認証済みプロファイルを格納するためのキー。
var profileContextKey = contextKey("profile")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenIssuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (identityID string, email string, err error)
}

// ProfileFinder はプロファイルの検索に必要なインターフェース。
// repository.ProfileRepositoryの部分集合として定義する。
type ProfileFinder interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 対応するプロファイルをリクエストコンテキストに注入するミドルウェアを返す。
// トークン不正・プロファイル未作成は401、無効化済みプロファイルは403を返す。
func NewAuthMiddleware(verifier TokenVerifier, profiles ProfileFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			token := bearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// 2. トークンの署名と有効期限を検証
			identityID, _, err := verifier.Verify(token)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// 3. アカウントに対応するプロファイルを読み込む
			profile, err := profiles.FindByID(r.Context(), identityID)
			if err != nil {
				slog.Error("failed to find profile",
					slog.String("identity_id", identityID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if profile == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// 4. 無効化されたプロファイルは全ての操作を拒否する
			if !profile.Active {
				WriteErrorResponse(w, http.StatusForbidden, "forbidden")
				return
			}

			ctx := ContextWithProfile(r.Context(), profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが無い、またはBearerスキームでない場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// ProfileFromContext はリクエストコンテキストから認証済みプロファイルを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ProfileFromContext(ctx context.Context) (*model.Profile, error) {
	profile, ok := ctx.Value(profileContextKey).(*model.Profile)
	if !ok || profile == nil {
		return nil, fmt.Errorf("profile not found in context")
	}
	return profile, nil
}

// ContextWithProfile はコンテキストにプロファイルを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithProfile(ctx context.Context, profile *model.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, profile)
}
