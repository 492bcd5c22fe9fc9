package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shareit/internal/middleware"
	"github.com/hitoshi/shareit/internal/model"
)

// Gateway は形式検証を行ったうえでバックエンドへ転送するHTTPハンドラー群。
// 意味的な検証（存在確認、権限、重複）はバックエンドの責務とする。
type Gateway struct {
	client *Client
	now    func() time.Time
}

// NewGateway はGatewayを生成する。
func NewGateway(client *Client) *Gateway {
	return &Gateway{
		client: client,
		now:    time.Now,
	}
}

// RouterDeps はゲートウェイルーターの依存関係。
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
}

// NewRouter はゲートウェイの全ルーティングとミドルウェアチェーンを構成する。
// レート制限と形式検証をこの層で行い、バックエンドの負荷を抑える。
func (g *Gateway) NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware())
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", g.createUser)
			r.Get("/", g.forward)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", g.forwardWithID("userId"))
				r.Patch("/", g.updateUser)
				r.Delete("/", g.forwardWithID("userId"))
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", g.createItem)
			r.Get("/", g.requireIdentity(g.forwardPaginated))
			r.Get("/search", g.forwardPaginated)

			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", g.requireIdentity(g.forwardWithID("itemId")))
				r.Patch("/", g.updateItem)
				r.Post("/comment", g.createComment)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", g.createBooking)
			r.Get("/", g.requireIdentity(g.listBookings))
			r.Get("/owner", g.requireIdentity(g.listBookings))

			r.Route("/{bookingId}", func(r chi.Router) {
				r.Get("/", g.requireIdentity(g.forwardWithID("bookingId")))
				r.Patch("/", g.confirmBooking)
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", g.createRequest)
			r.Get("/", g.requireIdentity(g.forward))
			r.Get("/all", g.requireIdentity(g.forwardPaginated))
			r.Get("/{requestId}", g.requireIdentity(g.forwardWithID("requestId")))
		})
	})

	return r
}

// --- 共通ヘルパー ---

func writeValidationError(w http.ResponseWriter, reason string) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(reason))
}

// requireIdentity はX-Sharer-User-Idヘッダー必須のGETエンドポイントをラップする。
func (g *Gateway) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
			writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
			return
		}
		next(w, r)
	}
}

// readBody は検証用にリクエストボディを読み取り、resultへデコードする。
// 転送用に生のバイト列を返す。
func readBody(w http.ResponseWriter, r *http.Request, result any) ([]byte, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeValidationError(w, "リクエストボディの読み取りに失敗しました")
		return nil, false
	}
	if err := json.Unmarshal(raw, result); err != nil {
		writeValidationError(w, "リクエストボディの解析に失敗しました")
		return nil, false
	}
	return raw, true
}

// checkIDParam はURLパラメータが正の整数であることを検証する。
func checkIDParam(w http.ResponseWriter, r *http.Request, name string) bool {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeValidationError(w, name+"が不正です")
		return false
	}
	return true
}

// checkPagination はfrom/sizeクエリの形式を検証する。
func checkPagination(w http.ResponseWriter, r *http.Request) bool {
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := strconv.Atoi(raw)
		if err != nil || from < 0 {
			writeValidationError(w, "fromは0以上の整数でなければなりません")
			return false
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			writeValidationError(w, "sizeは1以上の整数でなければなりません")
			return false
		}
	}
	return true
}

// forward は検証なしでそのまま転送する。
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request) {
	g.client.Proxy(w, r, nil)
}

// forwardWithID はIDパラメータの形式を検証してから転送する。
func (g *Gateway) forwardWithID(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkIDParam(w, r, name) {
			return
		}
		g.client.Proxy(w, r, nil)
	}
}

// forwardPaginated はページネーションクエリを検証してから転送する。
func (g *Gateway) forwardPaginated(w http.ResponseWriter, r *http.Request) {
	if !checkPagination(w, r) {
		return
	}
	g.client.Proxy(w, r, nil)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// --- ユーザー ---

type userBody struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (g *Gateway) createUser(w http.ResponseWriter, r *http.Request) {
	var body userBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		writeValidationError(w, "nameは必須です")
		return
	}
	if body.Email == nil || !validEmail(*body.Email) {
		writeValidationError(w, "emailの形式が不正です")
		return
	}

	g.client.Proxy(w, r, raw)
}

func (g *Gateway) updateUser(w http.ResponseWriter, r *http.Request) {
	if !checkIDParam(w, r, "userId") {
		return
	}

	var body userBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		writeValidationError(w, "nameは空にできません")
		return
	}
	if body.Email != nil && !validEmail(*body.Email) {
		writeValidationError(w, "emailの形式が不正です")
		return
	}

	g.client.Proxy(w, r, raw)
}

// --- 物品 ---

type itemBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

func (g *Gateway) createItem(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}

	var body itemBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		writeValidationError(w, "nameは必須です")
		return
	}
	if body.Description == nil || strings.TrimSpace(*body.Description) == "" {
		writeValidationError(w, "descriptionは必須です")
		return
	}
	if body.Available == nil {
		writeValidationError(w, "availableは必須です")
		return
	}
	if body.RequestID != nil && *body.RequestID <= 0 {
		writeValidationError(w, "requestIdが不正です")
		return
	}

	g.client.Proxy(w, r, raw)
}

func (g *Gateway) updateItem(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}
	if !checkIDParam(w, r, "itemId") {
		return
	}

	var body itemBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		writeValidationError(w, "nameは空にできません")
		return
	}
	if body.Description != nil && strings.TrimSpace(*body.Description) == "" {
		writeValidationError(w, "descriptionは空にできません")
		return
	}

	g.client.Proxy(w, r, raw)
}

type commentBody struct {
	Text string `json:"text"`
}

func (g *Gateway) createComment(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}
	if !checkIDParam(w, r, "itemId") {
		return
	}

	var body commentBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if strings.TrimSpace(body.Text) == "" {
		writeValidationError(w, "textは必須です")
		return
	}

	g.client.Proxy(w, r, raw)
}

// --- 予約 ---

type bookingBody struct {
	ItemID int64      `json:"itemId"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
}

// createBooking は予約作成の形式検証を行う。
// 過去日付の拒否はこの層の責務。バックエンドは期間の前後関係のみを検証する。
func (g *Gateway) createBooking(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}

	var body bookingBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if body.ItemID <= 0 {
		writeValidationError(w, "itemIdは必須です")
		return
	}
	if body.Start == nil || body.End == nil {
		writeValidationError(w, "startとendは必須です")
		return
	}

	now := g.now()
	if body.Start.Before(now) {
		writeValidationError(w, "startは未来の日時でなければなりません")
		return
	}
	if body.End.Before(now) {
		writeValidationError(w, "endは未来の日時でなければなりません")
		return
	}
	if !body.Start.Before(*body.End) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateRangeError())
		return
	}

	g.client.Proxy(w, r, raw)
}

func (g *Gateway) confirmBooking(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}
	if !checkIDParam(w, r, "bookingId") {
		return
	}

	approved := r.URL.Query().Get("approved")
	if approved != "true" && approved != "false" {
		writeValidationError(w, "approvedにはtrueまたはfalseを指定してください")
		return
	}

	g.client.Proxy(w, r, nil)
}

// listBookings は絞り込み状態とページネーションを検証してから転送する。
func (g *Gateway) listBookings(w http.ResponseWriter, r *http.Request) {
	if state := r.URL.Query().Get("state"); state != "" {
		if _, ok := model.ParseBookingState(state); !ok {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewUnknownStateError(state))
			return
		}
	}
	if !checkPagination(w, r) {
		return
	}

	g.client.Proxy(w, r, nil)
}

// --- リクエスト ---

type requestBody struct {
	Description string `json:"description"`
}

func (g *Gateway) createRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeValidationError(w, "X-Sharer-User-Idヘッダーは必須です")
		return
	}

	var body requestBody
	raw, ok := readBody(w, r, &body)
	if !ok {
		return
	}

	if strings.TrimSpace(body.Description) == "" {
		writeValidationError(w, "descriptionは必須です")
		return
	}

	g.client.Proxy(w, r, raw)
}
