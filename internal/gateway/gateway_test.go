package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/shareit/internal/middleware"
)

// recordedRequest はバックエンドが受信したリクエストの記録。
type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

// newBackendStub は受信リクエストを記録して固定応答を返すバックエンドを起動する。
func newBackendStub(t *testing.T, status int, responseBody string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var received []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = append(received, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	return server, &received
}

func newTestGateway(t *testing.T, backendURL string) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(backendURL, 5*time.Second, logger)
	g := NewGateway(client)
	return g.NewRouter(&RouterDeps{})
}

// --- テスト ---

// TestGateway_ForwardsValidBooking は妥当な予約作成がヘッダーとボディごと転送されることを検証する。
func TestGateway_ForwardsValidBooking(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusCreated, `{"id":100}`)
	gw := newTestGateway(t, backend.URL)

	start := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"itemId":10,"start":"` + start + `","end":"` + end + `"}`

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set(middleware.SharerUserIDHeader, "1")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", w.Result().StatusCode, w.Body.String())
	}
	if len(*received) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(*received))
	}

	got := (*received)[0]
	if got.method != http.MethodPost || got.path != "/bookings" {
		t.Errorf("forwarded %s %s, want POST /bookings", got.method, got.path)
	}
	if got.header.Get(middleware.SharerUserIDHeader) != "1" {
		t.Errorf("user header = %q, want 1", got.header.Get(middleware.SharerUserIDHeader))
	}
	if got.body != body {
		t.Errorf("forwarded body = %s, want %s", got.body, body)
	}
	if !strings.Contains(w.Body.String(), `"id":100`) {
		t.Errorf("response body = %s, want backend body", w.Body.String())
	}
}

// TestGateway_RejectsPastBookingDates は過去日付の予約がバックエンドに届かないことを検証する。
func TestGateway_RejectsPastBookingDates(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusCreated, `{}`)
	gw := newTestGateway(t, backend.URL)

	start := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"itemId":10,"start":"` + start + `","end":"` + end + `"}`

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set(middleware.SharerUserIDHeader, "1")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_RejectsReversedBookingDates はstart>=endの予約が400になることを検証する。
func TestGateway_RejectsReversedBookingDates(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusCreated, `{}`)
	gw := newTestGateway(t, backend.URL)

	start := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"itemId":10,"start":"` + start + `","end":"` + end + `"}`

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set(middleware.SharerUserIDHeader, "1")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_RejectsUnknownState は未知のstateがこの層で拒否されることを検証する。
func TestGateway_RejectsUnknownState(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusOK, `[]`)
	gw := newTestGateway(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/bookings?state=UNSUPPORTED_STATUS", nil)
	req.Header.Set(middleware.SharerUserIDHeader, "1")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if !strings.Contains(w.Body.String(), "Unknown state: UNSUPPORTED_STATUS") {
		t.Errorf("body = %s, want unknown state message", w.Body.String())
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_ForwardsKnownState は既知のstateがそのまま転送されることを検証する。
func TestGateway_ForwardsKnownState(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusOK, `[]`)
	gw := newTestGateway(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/bookings/owner?state=WAITING&from=10&size=5", nil)
	req.Header.Set(middleware.SharerUserIDHeader, "2")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if len(*received) != 1 {
		t.Fatalf("backend received %d requests, want 1", len(*received))
	}
	got := (*received)[0]
	if got.path != "/bookings/owner" || !strings.Contains(got.query, "state=WAITING") {
		t.Errorf("forwarded %s?%s", got.path, got.query)
	}
}

// TestGateway_RejectsInvalidEmail はメール形式不正のユーザー作成が400になることを検証する。
func TestGateway_RejectsInvalidEmail(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusCreated, `{}`)
	gw := newTestGateway(t, backend.URL)

	for _, body := range []string{
		`{"name":"user","email":"not-an-email"}`,
		`{"name":"user"}`,
		`{"email":"user@example.com"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		w := httptest.NewRecorder()

		gw.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Result().StatusCode)
		}
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_RejectsItemWithoutAvailable はavailable欠落の出品が400になることを検証する。
func TestGateway_RejectsItemWithoutAvailable(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusCreated, `{}`)
	gw := newTestGateway(t, backend.URL)

	req := httptest.NewRequest(http.MethodPost, "/items",
		strings.NewReader(`{"name":"ドリル","description":"電動ドリル"}`))
	req.Header.Set(middleware.SharerUserIDHeader, "2")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_RejectsMissingHeader はヘッダー必須エンドポイントで400になることを検証する。
func TestGateway_RejectsMissingHeader(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusOK, `[]`)
	gw := newTestGateway(t, backend.URL)

	for _, target := range []string{"/items", "/bookings", "/requests"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		gw.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Result().StatusCode)
		}
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}

// TestGateway_SearchWithoutHeader は検索がヘッダーなしで転送されることを検証する。
func TestGateway_SearchWithoutHeader(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusOK, `[]`)
	gw := newTestGateway(t, backend.URL)

	req := httptest.NewRequest(http.MethodGet, "/items/search?text=drill", nil)
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Result().StatusCode)
	}
	if len(*received) != 1 {
		t.Errorf("backend received %d requests, want 1", len(*received))
	}
}

// TestGateway_BackendDown はバックエンド停止時に502を返すことを検証する。
func TestGateway_BackendDown(t *testing.T) {
	backend, _ := newBackendStub(t, http.StatusOK, `[]`)
	backendURL := backend.URL
	backend.Close()

	gw := newTestGateway(t, backendURL)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Result().StatusCode)
	}
	if !strings.Contains(w.Body.String(), "BACKEND_UNAVAILABLE") {
		t.Errorf("body = %s, want BACKEND_UNAVAILABLE", w.Body.String())
	}
}

// TestGateway_ConfirmApprovedValidation はapprovedクエリの検証を検証する。
func TestGateway_ConfirmApprovedValidation(t *testing.T) {
	backend, received := newBackendStub(t, http.StatusOK, `{}`)
	gw := newTestGateway(t, backend.URL)

	req := httptest.NewRequest(http.MethodPatch, "/bookings/100?approved=maybe", nil)
	req.Header.Set(middleware.SharerUserIDHeader, "2")
	w := httptest.NewRecorder()

	gw.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Result().StatusCode)
	}
	if len(*received) != 0 {
		t.Errorf("backend received %d requests, want 0", len(*received))
	}
}
