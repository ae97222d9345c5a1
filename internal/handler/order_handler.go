package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/regiman/internal/middleware"
	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/pos"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	// List は全注文を返す。
	List(ctx context.Context) ([]*model.Order, error)
	// Get は指定IDの注文を返す。
	Get(ctx context.Context, id string) (*model.Order, error)
	// Create は新しい注文を作成する。
	Create(ctx context.Context, createdBy string, in pos.OrderInput) (*model.Order, error)
	// Update は指定IDの注文を更新する。
	Update(ctx context.Context, id string, in pos.OrderInput) (*model.Order, error)
	// Delete は指定IDの注文を削除する。
	Delete(ctx context.Context, id string) error
}

// OrderHandler は注文（売上）のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// orderRequest は注文の作成・更新リクエストのボディ。
type orderRequest struct {
	CategoryID string `json:"category_id"`
	TotalCents int64  `json:"total_cents"`
	Status     string `json:"status"`
	Note       string `json:"note"`
}

// orderResponse は注文情報のAPIレスポンス。
type orderResponse struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	Note       string    `json:"note"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListOrders は注文一覧を返す。
// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]orderResponse, len(orders))
	for i, o := range orders {
		responses[i] = toOrderResponse(o)
	}

	writeDataResponse(w, http.StatusOK, responses)
}

// CreateOrder は注文を作成する。
// POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	profile, err := middleware.ProfileFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	order, err := h.service.Create(r.Context(), profile.ID, pos.OrderInput{
		CategoryID: req.CategoryID,
		TotalCents: req.TotalCents,
		Status:     model.OrderStatus(req.Status),
		Note:       req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrder は注文詳細を返す。
// GET /api/orders/:id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toOrderResponse(order))
}

// UpdateOrder は注文を更新する。
// PUT /api/orders/:id
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	order, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), pos.OrderInput{
		CategoryID: req.CategoryID,
		TotalCents: req.TotalCents,
		Status:     model.OrderStatus(req.Status),
		Note:       req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeDataResponse(w, http.StatusOK, toOrderResponse(order))
}

// DeleteOrder は注文を削除する。
// DELETE /api/orders/:id
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupOrderRoutes は注文管理関連のルーティングを設定したchi.Routerを返す。
func SetupOrderRoutes(service OrderServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewOrderHandler(service)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Put("/", h.UpdateOrder)
			r.Delete("/", h.DeleteOrder)
		})
	})

	return r
}

// toOrderResponse はmodel.OrderからAPIレスポンスに変換する。
func toOrderResponse(order *model.Order) orderResponse {
	return orderResponse{
		ID:         order.ID,
		CategoryID: order.CategoryID,
		TotalCents: order.TotalCents,
		Status:     string(order.Status),
		Note:       order.Note,
		CreatedBy:  order.CreatedBy,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}
