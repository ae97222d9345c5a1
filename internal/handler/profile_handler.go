package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/model"
)

// ProfileServiceInterface はプロファイル管理ハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// List は全プロファイルを返す。
	List(ctx context.Context) ([]*model.Profile, error)
	// ChangeRole はプロファイルのロールを変更する。
	ChangeRole(ctx context.Context, id string, role model.Role) (*model.Profile, error)
	// SetActive はプロファイルの有効状態を変更する。
	SetActive(ctx context.Context, id string, active bool) (*model.Profile, error)
}

// ProfileHandler はプロファイル管理のHTTPハンドラー。
// 全操作がMANAGE_USERS権限を前提とする（権限チェックはミドルウェアが行う）。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// changeRoleRequest はロール変更リクエストのボディ。
type changeRoleRequest struct {
	Role string `json:"role"`
}

// setActiveRequest は有効状態変更リクエストのボディ。
type setActiveRequest struct {
	Active *bool `json:"active"`
}

// ListProfiles は全プロファイルの一覧を返す。
// GET /api/profiles
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		responses[i] = toProfileResponse(p)
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// ChangeRole はプロファイルのロールを変更する。
// PUT /api/profiles/:id/role
func (h *ProfileHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	updated, err := h.service.ChangeRole(r.Context(), profileID, model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toProfileResponse(updated))
}

// SetActive はプロファイルの有効状態を変更する。
// PUT /api/profiles/:id/active
func (h *ProfileHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.Active == nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "activeを指定してください。",
			Category: "validation",
			Action:   "activeにtrueまたはfalseを指定してください。",
		})
		return
	}

	updated, err := h.service.SetActive(r.Context(), profileID, *req.Active)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toProfileResponse(updated))
}

// SetupProfileRoutes はプロファイル管理関連のルーティングを設定したchi.Routerを返す。
func SetupProfileRoutes(service ProfileServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewProfileHandler(service)

	r.Route("/api/profiles", func(r chi.Router) {
		r.Get("/", h.ListProfiles)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/role", h.ChangeRole)
			r.Put("/active", h.SetActive)
		})
	})

	return r
}
