// Package gateway はバックエンドAPIの前段に立つ検証ゲートウェイを提供する。
// リクエストの形式検証を行い、妥当なリクエストのみをバックエンドへ転送する。
package gateway

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/shareit/internal/middleware"
	"github.com/hitoshi/shareit/internal/model"
)

// Client はバックエンドAPIへの転送クライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClient の新しいインスタンスを生成する。
// baseURLはバックエンドAPIのルート（例: http://localhost:9090）。
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		baseURL:    baseURL,
	}
}

// forwardedHeaders は転送時に引き継ぐリクエストヘッダー。
var forwardedHeaders = []string{
	"Content-Type",
	middleware.SharerUserIDHeader,
	"X-Request-Id",
}

// Proxy は受信リクエストをバックエンドへ転送し、応答をそのまま書き戻す。
// bodyには検証のために読み取り済みのリクエストボディを渡す（GETならnil）。
func (c *Client) Proxy(w http.ResponseWriter, r *http.Request, body []byte) {
	target := c.baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, reader)
	if err != nil {
		c.logger.Error("転送リクエストの作成に失敗しました",
			slog.String("error", err.Error()),
			slog.String("target", target),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("バックエンドへの転送に失敗しました",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "BACKEND_UNAVAILABLE",
			Message:  "バックエンドサーバーに接続できません。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		c.logger.Error("応答ボディの転送に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
