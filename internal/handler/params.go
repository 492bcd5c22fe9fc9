package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shareit/internal/middleware"
	"github.com/hitoshi/shareit/internal/model"
)

// requireUserID はコンテキストから利用者IDを取得する。
// ヘッダーなしで到達したリクエストには400を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("X-Sharer-User-Idヘッダーは必須です"))
		return 0, false
	}
	return userID, true
}

// parseIDParam はURLパラメータを正のint64として解釈する。
// 不正な値には400を書き込みfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError(name+"が不正です"))
		return 0, false
	}
	return id, true
}

// parsePagination はクエリ文字列からfrom/sizeを解釈する。
// 省略時はfrom=0、size=defaultSizeを使用する。負のfromと0以下のsizeは拒否する。
func parsePagination(w http.ResponseWriter, r *http.Request, defaultSize int) (from, size int, ok bool) {
	from = 0
	size = defaultSize

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("fromは0以上の整数でなければなりません"))
			return 0, 0, false
		}
		from = parsed
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("sizeは1以上の整数でなければなりません"))
			return 0, 0, false
		}
		size = parsed
	}

	return from, size, true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
