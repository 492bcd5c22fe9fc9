// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/shareit/internal/booking"
	"github.com/hitoshi/shareit/internal/config"
	"github.com/hitoshi/shareit/internal/database"
	"github.com/hitoshi/shareit/internal/gateway"
	"github.com/hitoshi/shareit/internal/handler"
	"github.com/hitoshi/shareit/internal/item"
	"github.com/hitoshi/shareit/internal/logger"
	"github.com/hitoshi/shareit/internal/metrics"
	"github.com/hitoshi/shareit/internal/middleware"
	"github.com/hitoshi/shareit/internal/repository"
	"github.com/hitoshi/shareit/internal/request"
	"github.com/hitoshi/shareit/internal/security"
	"github.com/hitoshi/shareit/internal/user"
)

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "9090"
		}
		return runHealthcheck(port)
	}

	logger.SetupDefault(w)

	// ゲートウェイはDBに接続しないため専用の設定読み込みを使う
	if cmd == CommandGateway {
		cfg, err := config.LoadGateway()
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		slog.Info("starting application",
			slog.String("command", string(cmd)),
			slog.String("port", cfg.GatewayPort),
			slog.String("server_url", cfg.ServerURL),
		)
		return runGateway(cfg)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はバックエンドAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	itemRepo := repository.NewPostgresItemRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	requestRepo := repository.NewPostgresRequestRepo(db)

	// 3. セキュリティサービスの初期化
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	userService := user.NewService(userRepo)
	itemService := item.NewService(itemRepo, userRepo, bookingRepo, commentRepo, requestRepo, sanitizer)
	bookingService := booking.NewService(bookingRepo, itemRepo, userRepo, repository.NewSQLTxRunner(db), cfg.BookingsEmptyAsError)
	requestService := request.NewService(requestRepo, userRepo, itemRepo, sanitizer)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		Collector: collector,
		Gatherer:  registry,

		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
		RequestService: requestService,

		DefaultPageSize: cfg.DefaultPageSize,
	})

	return serveHTTP(":"+cfg.ServerPort, router)
}

// runGateway は検証ゲートウェイモードで起動する。
// DBには接続せず、形式検証とバックエンドへの転送のみを行う。
func runGateway(cfg *config.Config) error {
	client := gateway.NewClient(cfg.ServerURL, cfg.ForwardTimeout, slog.Default())
	g := gateway.NewGateway(client)

	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router := g.NewRouter(&gateway.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
	})

	return serveHTTP(":"+cfg.GatewayPort, router)
}

// serveHTTP はHTTPサーバーを起動し、シグナル受信時にグレースフルシャットダウンする。
func serveHTTP(addr string, router http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
