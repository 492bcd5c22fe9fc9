// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/shareit/internal/metrics"
	"github.com/hitoshi/shareit/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	// サービス
	UserService    UserServiceInterface
	ItemService    ItemServiceInterface
	BookingService BookingServiceInterface
	RequestService RequestServiceInterface

	// ページネーションの既定サイズ
	DefaultPageSize int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Identity → RateLimit → Metrics
//
// /healthと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	// nilの*Collectorを非nilインターフェースとして渡さないようにする
	var collector metrics.MetricsCollector
	if deps.Collector != nil {
		collector = deps.Collector
	}

	userHandler := NewUserHandler(deps.UserService)
	itemHandler := NewItemHandler(deps.ItemService, collector, deps.DefaultPageSize)
	bookingHandler := NewBookingHandler(deps.BookingService, collector, deps.DefaultPageSize)
	requestHandler := NewRequestHandler(deps.RequestService, deps.DefaultPageSize)

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIエンドポイント ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware())
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		if deps.Collector != nil {
			r.Use(metrics.NewHTTPMiddleware(deps.Collector))
		}

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Create)
			r.Get("/", userHandler.List)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Patch("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
			})
		})

		// 物品管理
		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemHandler.Create)
			r.Get("/", itemHandler.List)
			r.Get("/search", itemHandler.Search)

			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", itemHandler.Get)
				r.Patch("/", itemHandler.Update)
				r.Post("/comment", itemHandler.CreateComment)
			})
		})

		// 予約管理
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.Create)
			r.Get("/", bookingHandler.ListByBooker)
			r.Get("/owner", bookingHandler.ListByOwner)

			r.Route("/{bookingId}", func(r chi.Router) {
				r.Get("/", bookingHandler.Get)
				r.Patch("/", bookingHandler.Confirm)
			})
		})

		// リクエスト管理
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandler.Create)
			r.Get("/", requestHandler.ListOwn)
			r.Get("/all", requestHandler.ListOthers)
			r.Get("/{requestId}", requestHandler.Get)
		})
	})

	return r
}
