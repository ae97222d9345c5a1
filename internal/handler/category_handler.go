package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	// List は全カテゴリを返す。
	List(ctx context.Context) ([]*model.Category, error)
	// Get は指定IDのカテゴリを返す。
	Get(ctx context.Context, id string) (*model.Category, error)
	// Create は新しいカテゴリを作成する。
	Create(ctx context.Context, name, description string) (*model.Category, error)
	// Update は指定IDのカテゴリを更新する。
	Update(ctx context.Context, id, name, description string) (*model.Category, error)
	// Delete は指定IDのカテゴリを削除する。
	Delete(ctx context.Context, id string) error
}

// CategoryHandler は商品カテゴリのHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryRequest はカテゴリの作成・更新リクエストのボディ。
type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// categoryResponse はカテゴリ情報のAPIレスポンス。
type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListCategories はカテゴリ一覧を返す。
// GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]categoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = toCategoryResponse(c)
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// CreateCategory はカテゴリを作成する。
// POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	category, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusCreated, toCategoryResponse(category))
}

// GetCategory はカテゴリ詳細を返す。
// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toCategoryResponse(category))
}

// UpdateCategory はカテゴリを更新する。
// PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	category, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory はカテゴリを削除する。
// DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupCategoryRoutes はカテゴリ管理関連のルーティングを設定したchi.Routerを返す。
func SetupCategoryRoutes(service CategoryServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewCategoryHandler(service)

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetCategory)
			r.Put("/", h.UpdateCategory)
			r.Delete("/", h.DeleteCategory)
		})
	})

	return r
}

// toCategoryResponse はmodel.CategoryからAPIレスポンスに変換する。
func toCategoryResponse(category *model.Category) categoryResponse {
	return categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}
