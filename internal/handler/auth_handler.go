// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/security"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規アカウントを作成し、トークンと作成済みプロファイルを返す。
	SignUp(ctx context.Context, email, password, fullName string) (string, *model.Profile, error)
	// SignIn は認証情報を検証し、アクセストークンを発行する。
	SignIn(ctx context.Context, email, password string) (string, error)
	// SignOut はセッション終了をリスナーへ通知する。
	SignOut(ctx context.Context)
	// ChangeEmail はアカウントのメールアドレスを変更する。
	ChangeEmail(ctx context.Context, identityID, newEmail string) error
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	sanitizer security.TextSanitizerService
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sanitizer security.TextSanitizerService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		sanitizer: sanitizer,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// changeEmailRequest はメールアドレス変更リクエストのボディ。
type changeEmailRequest struct {
	Email string `json:"email"`
}

// profileResponse はプロファイル情報のAPIレスポンス。
type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// signUpResponse はサインアップ成功時のレスポンス。
type signUpResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

// signInResponse はサインイン成功時のレスポンス。
type signInResponse struct {
	Token string `json:"token"`
}

// SignUp は新規アカウント作成を処理する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	// 氏名は自由入力テキストのため保存経路に乗る前にサニタイズする
	fullName := h.sanitizer.Sanitize(req.FullName)

	token, profile, err := h.service.SignUp(r.Context(), req.Email, req.Password, fullName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusCreated, signUpResponse{
		Token:   token,
		Profile: toProfileResponse(profile),
	})
}

// SignIn はサインインを処理する。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, signInResponse{Token: token})
}

// SignOut はサインアウトを処理する。
// トークンはステートレスのため、サーバー側ではリスナー通知のみ行う。
// POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.service.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me は認証済みプロファイルを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := middleware.ProfileFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeDataResponse(w, http.StatusOK, toProfileResponse(profile))
}

// ChangeEmail は認証済みアカウントのメールアドレスを変更する。
// プロファイル側のメールアドレスは整合サービスが追従させる。
// PATCH /auth/email
func (h *AuthHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	profile, err := middleware.ProfileFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	// プロファイルIDはidentityのIDと同一
	if err := h.service.ChangeEmail(r.Context(), profile.ID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
// authLimitMiddleware が nil でない場合、サインアップとサインインに
// 認証前エンドポイント専用のIPベースレート制限を適用する。
// /auth/me と /auth/email は authMiddleware を必要とする。
func SetupAuthRoutes(
	service AuthServiceInterface,
	sanitizer security.TextSanitizerService,
	authLimitMiddleware func(http.Handler) http.Handler,
	authMiddleware func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, sanitizer)

	r.Route("/auth", func(r chi.Router) {
		if authLimitMiddleware != nil {
			r.With(authLimitMiddleware).Post("/signup", h.SignUp)
			r.With(authLimitMiddleware).Post("/signin", h.SignIn)
		} else {
			r.Post("/signup", h.SignUp)
			r.Post("/signin", h.SignIn)
		}

		r.Post("/signout", h.SignOut)

		r.Group(func(r chi.Router) {
			if authMiddleware != nil {
				r.Use(authMiddleware)
			}
			r.Get("/me", h.Me)
			r.Patch("/email", h.ChangeEmail)
		})
	})

	return r
}

// --- ヘルパー関数 ---

// dataEnvelope は成功レスポンスの統一フォーマット。
// 本文は {"data": <ペイロード>} に固定する。
type dataEnvelope struct {
	Data any `json:"data"`
}

// writeDataResponse は成功レスポンスをdata封筒で書き込む。
func writeDataResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(dataEnvelope{Data: payload})
}

// toProfileResponse はmodel.ProfileからAPIレスポンスに変換する。
func toProfileResponse(profile *model.Profile) profileResponse {
	return profileResponse{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Role:      string(profile.Role),
		Active:    profile.Active,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
}

// writeAPIError はAPIErrorのメッセージを統一エラーフォーマットで書き込む。
func writeAPIError(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr.Message)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmailTaken, model.ErrCodeLastAdmin:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeIdentityNotFound, model.ErrCodeProfileNotFound,
		model.ErrCodeCategoryNotFound, model.ErrCodeOrderNotFound,
		model.ErrCodeExpenseNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidEmail, model.ErrCodeWeakPassword,
		model.ErrCodeInvalidRole, model.ErrCodeInvalidOrderStatus,
		model.ErrCodeInvalidExpenseStatus, model.ErrCodeInvalidAmount,
		model.ErrCodeInvalidName:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
