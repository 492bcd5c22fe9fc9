package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/shareit/internal/booking"
	"github.com/hitoshi/shareit/internal/metrics"
	"github.com/hitoshi/shareit/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Create(ctx context.Context, bookerID int64, input booking.CreateInput) (*model.EnrichedBooking, error)
	Confirm(ctx context.Context, ownerID, bookingID int64, approved bool) (*model.EnrichedBooking, error)
	GetByID(ctx context.Context, userID, bookingID int64) (*model.EnrichedBooking, error)
	ListByBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]model.EnrichedBooking, error)
	ListByOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]model.EnrichedBooking, error)
}

// BookingHandler は予約管理のHTTPハンドラー。
type BookingHandler struct {
	service         BookingServiceInterface
	collector       metrics.MetricsCollector
	defaultPageSize int
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface, collector metrics.MetricsCollector, defaultPageSize int) *BookingHandler {
	return &BookingHandler{
		service:         service,
		collector:       collector,
		defaultPageSize: defaultPageSize,
	}
}

// createBookingRequest は予約作成リクエストのボディ。
type createBookingRequest struct {
	ItemID int64     `json:"itemId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Create は予約作成を処理する。
// POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.ItemID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("itemIdは必須です"))
		return
	}
	if req.Start.IsZero() || req.End.IsZero() {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("startとendは必須です"))
		return
	}

	eb, err := h.service.Create(r.Context(), userID, booking.CreateInput{
		ItemID: req.ItemID,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordBookingCreated()
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(eb))
}

// Confirm は予約の承認・却下を処理する。
// PATCH /bookings/{bookingId}?approved=true|false
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookingID, ok := parseIDParam(w, r, "bookingId")
	if !ok {
		return
	}

	var approved bool
	switch r.URL.Query().Get("approved") {
	case "true":
		approved = true
	case "false":
		approved = false
	default:
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("approvedにはtrueまたはfalseを指定してください"))
		return
	}

	eb, err := h.service.Confirm(r.Context(), userID, bookingID, approved)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordBookingDecision(approved)
	}

	writeJSON(w, http.StatusOK, toBookingResponse(eb))
}

// Get は予約詳細を取得する。予約者本人と物品所有者のみが参照できる。
// GET /bookings/{bookingId}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookingID, ok := parseIDParam(w, r, "bookingId")
	if !ok {
		return
	}

	eb, err := h.service.GetByID(r.Context(), userID, bookingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(eb))
}

// ListByBooker は予約者としての予約一覧を取得する。
// GET /bookings?state=&from=&size=
func (h *BookingHandler) ListByBooker(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, size, ok := parsePagination(w, r, h.defaultPageSize)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(model.BookingStateAll)
	}

	bookings, err := h.service.ListByBooker(r.Context(), userID, state, from, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// ListByOwner は所有物品に対する予約一覧を取得する。
// GET /bookings/owner?state=&from=&size=
func (h *BookingHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	from, size, ok := parsePagination(w, r, h.defaultPageSize)
	if !ok {
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(model.BookingStateAll)
	}

	bookings, err := h.service.ListByOwner(r.Context(), userID, state, from, size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}
