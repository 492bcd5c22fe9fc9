// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hitoshi/shareit/internal/model"
)

// SharerUserIDHeader は利用者IDを伝搬するHTTPヘッダー名。
// ゲートウェイが検証済みの値をバックエンドに引き渡す。
const SharerUserIDHeader = "X-Sharer-User-Id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストに利用者IDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// NewIdentityMiddleware はX-Sharer-User-Idヘッダーから利用者IDを読み取り、
// リクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーが存在しないリクエストはそのまま通過させ、必要とするハンドラー側で拒否する。
// 数値として解釈できないヘッダーには400を返す。
func NewIdentityMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(SharerUserIDHeader)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := strconv.ParseInt(header, 10, 64)
			if err != nil || userID <= 0 {
				WriteErrorResponse(w, http.StatusBadRequest,
					model.NewInvalidRequestError("X-Sharer-User-Idヘッダーが不正です"))
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストから利用者IDを取得する。
// ヘッダーなしで到達したリクエストではエラーを返す。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストに利用者IDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
