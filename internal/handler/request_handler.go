package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/shareit/internal/model"
)

// RequestServiceInterface はリクエストハンドラーが必要とするサービスインターフェース。
type RequestServiceInterface interface {
	Create(ctx context.Context, requesterID int64, description string) (*model.ItemRequest, error)
	ListOwn(ctx context.Context, requesterID int64) ([]model.ItemRequestWithItems, error)
	ListOthers(ctx context.Context, userID int64, from, size int) ([]model.ItemRequestWithItems, error)
	GetByID(ctx context.Context, userID, requestID int64) (*model.ItemRequestWithItems, error)
}

// RequestHandler は物品リクエスト管理のHTTPハンドラー。
type RequestHandler struct {
	service         RequestServiceInterface
	defaultPageSize int
}

// NewRequestHandler はRequestHandlerを生成する。
func NewRequestHandler(service RequestServiceInterface, defaultPageSize int) *RequestHandler {
	return &RequestHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
	}
}

// createRequestRequest はリクエスト作成のボディ。
type createRequestRequest struct {
	Description string `json:"description"`
}

// Create は新しいリクエストの登録を処理する。
// POST /requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("descriptionは必須です"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestResponse(&model.ItemRequestWithItems{
		ItemRequest: *created,
		Items:       []model.Item{},
	}))
}

// ListOwn は自分が作成したリクエストの一覧を取得する。
// GET /requests
func (h *RequestHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	requests, err := h.service.ListOwn(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponses(requests))
}

// ListOthers は他ユーザーが作成したリクエストの一覧を取得する。
// GET /requests/all?from=&size=
func (h *RequestHandler) ListOthers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, size, ok := parsePagination(w, r, h.defaultPageSize)
	if !ok {
		return
	}

	requests, err := h.service.ListOthers(r.Context(), userID, from, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponses(requests))
}

// Get はリクエスト詳細を応答物品付きで取得する。
// GET /requests/{requestId}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(w, r, "requestId")
	if !ok {
		return
	}

	req, err := h.service.GetByID(r.Context(), userID, requestID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestResponse(req))
}
