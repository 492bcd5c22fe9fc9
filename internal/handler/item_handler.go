package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/shareit/internal/item"
	"github.com/hitoshi/shareit/internal/metrics"
	"github.com/hitoshi/shareit/internal/model"
)

// ItemServiceInterface は物品ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	Create(ctx context.Context, ownerID int64, input item.CreateInput) (*model.Item, error)
	Update(ctx context.Context, userID, itemID int64, patch model.ItemPatch) (*model.Item, error)
	GetDetail(ctx context.Context, userID, itemID int64) (*model.ItemDetail, error)
	ListByOwner(ctx context.Context, ownerID int64, from, size int) ([]model.ItemDetail, error)
	Search(ctx context.Context, text string, from, size int) ([]model.Item, error)
	CreateComment(ctx context.Context, authorID, itemID int64, text string) (*model.CommentWithAuthor, error)
}

// ItemHandler は物品管理のHTTPハンドラー。
type ItemHandler struct {
	service         ItemServiceInterface
	collector       metrics.MetricsCollector
	defaultPageSize int
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface, collector metrics.MetricsCollector, defaultPageSize int) *ItemHandler {
	return &ItemHandler{
		service:         service,
		collector:       collector,
		defaultPageSize: defaultPageSize,
	}
}

// createItemRequest は物品作成リクエストのボディ。
type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

// updateItemRequest は物品更新リクエストのボディ。
// 省略されたフィールドは既存の値を維持する。
type updateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// createCommentRequest はコメント投稿リクエストのボディ。
type createCommentRequest struct {
	Text string `json:"text"`
}

// Create は物品の出品を処理する。
// POST /items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("nameは必須です"))
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("descriptionは必須です"))
		return
	}
	if req.Available == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("availableは必須です"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, item.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(created))
}

// Update は物品の部分更新を処理する。
// PATCH /items/{itemId}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.Update(r.Context(), userID, itemID, model.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Available:   req.Available,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(updated))
}

// Get は物品詳細を取得する。
// GET /items/{itemId}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(r.Context(), userID, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemDetailResponse(detail))
}

// List は所有物品の一覧を詳細付きで取得する。
// GET /items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, size, ok := parsePagination(w, r, h.defaultPageSize)
	if !ok {
		return
	}

	details, err := h.service.ListByOwner(r.Context(), userID, from, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]itemDetailResponse, len(details))
	for i := range details {
		responses[i] = toItemDetailResponse(&details[i])
	}
	writeJSON(w, http.StatusOK, responses)
}

// Search は物品のテキスト検索を処理する。
// GET /items/search?text=
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	from, size, ok := parsePagination(w, r, h.defaultPageSize)
	if !ok {
		return
	}

	items, err := h.service.Search(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponses(items))
}

// CreateComment は完了した貸し出しへのコメント投稿を処理する。
// POST /items/{itemId}/comment
func (h *ItemHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(w, r, "itemId")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("textは必須です"))
		return
	}

	comment, err := h.service.CreateComment(r.Context(), userID, itemID, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordCommentCreated()
	}

	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}
