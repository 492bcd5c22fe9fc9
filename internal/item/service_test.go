package item

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/shareit/internal/model"
	"github.com/hitoshi/shareit/internal/repository"
	"github.com/hitoshi/shareit/internal/security"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error {
	return nil
}

type mockItemRepo struct {
	findByIDFn       func(ctx context.Context, id int64) (*model.Item, error)
	createFn         func(ctx context.Context, item *model.Item) error
	updateFn         func(ctx context.Context, item *model.Item) error
	listIDsByOwnerFn func(ctx context.Context, ownerID int64, page repository.Page) ([]int64, error)
	searchFn         func(ctx context.Context, text string, page repository.Page) ([]model.Item, error)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockItemRepo) Create(ctx context.Context, item *model.Item) error {
	return m.createFn(ctx, item)
}
func (m *mockItemRepo) Update(ctx context.Context, item *model.Item) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, item)
	}
	return nil
}
func (m *mockItemRepo) ListIDsByOwner(ctx context.Context, ownerID int64, page repository.Page) ([]int64, error) {
	return m.listIDsByOwnerFn(ctx, ownerID, page)
}
func (m *mockItemRepo) Search(ctx context.Context, text string, page repository.Page) ([]model.Item, error) {
	return m.searchFn(ctx, text, page)
}
func (m *mockItemRepo) ListByRequestID(ctx context.Context, requestID int64) ([]model.Item, error) {
	return nil, nil
}

type mockBookingRepo struct {
	findLastFn     func(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error)
	findNextFn     func(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error)
	hasCompletedFn func(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id int64) (*model.EnrichedBooking, error) {
	return nil, nil
}
func (m *mockBookingRepo) LockForDecision(ctx context.Context, tx *sql.Tx, id int64) (*model.EnrichedBooking, error) {
	return nil, nil
}
func (m *mockBookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	return nil
}
func (m *mockBookingRepo) IncrementRentalsTx(ctx context.Context, tx *sql.Tx, itemID int64) error {
	return nil
}
func (m *mockBookingRepo) ListByBooker(ctx context.Context, bookerID int64, state model.BookingState, now time.Time, page repository.Page) ([]model.EnrichedBooking, error) {
	return nil, nil
}
func (m *mockBookingRepo) ListByOwner(ctx context.Context, ownerID int64, state model.BookingState, now time.Time, page repository.Page) ([]model.EnrichedBooking, error) {
	return nil, nil
}
func (m *mockBookingRepo) FindLastForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error) {
	if m.findLastFn != nil {
		return m.findLastFn(ctx, itemID, now)
	}
	return nil, nil
}
func (m *mockBookingRepo) FindNextForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error) {
	if m.findNextFn != nil {
		return m.findNextFn(ctx, itemID, now)
	}
	return nil, nil
}
func (m *mockBookingRepo) HasCompletedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	if m.hasCompletedFn != nil {
		return m.hasCompletedFn(ctx, itemID, bookerID, now)
	}
	return false, nil
}

type mockCommentRepo struct {
	createFn     func(ctx context.Context, comment *model.Comment) error
	listByItemFn func(ctx context.Context, itemID int64) ([]model.CommentWithAuthor, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return m.createFn(ctx, comment)
}
func (m *mockCommentRepo) ListByItem(ctx context.Context, itemID int64) ([]model.CommentWithAuthor, error) {
	if m.listByItemFn != nil {
		return m.listByItemFn(ctx, itemID)
	}
	return nil, nil
}

type mockRequestRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.ItemRequest, error)
}

func (m *mockRequestRepo) Create(ctx context.Context, request *model.ItemRequest) error {
	return nil
}
func (m *mockRequestRepo) FindByID(ctx context.Context, id int64) (*model.ItemRequest, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockRequestRepo) ListByRequester(ctx context.Context, requesterID int64) ([]model.ItemRequest, error) {
	return nil, nil
}
func (m *mockRequestRepo) ListOthers(ctx context.Context, requesterID int64, page repository.Page) ([]model.ItemRequest, error) {
	return nil, nil
}

// --- ヘルパー ---

func existingUser(id int64) *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, got int64) (*model.User, error) {
			if got == id {
				return &model.User{ID: id, Name: "user", Email: "user@example.com"}, nil
			}
			return nil, nil
		},
	}
}

func newTestService(
	itemRepo *mockItemRepo,
	userRepo *mockUserRepo,
	bookingRepo *mockBookingRepo,
	commentRepo *mockCommentRepo,
	requestRepo *mockRequestRepo,
) *Service {
	return NewService(itemRepo, userRepo, bookingRepo, commentRepo, requestRepo, security.NewContentSanitizer())
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Fatalf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

func strPtr(s string) *string { return &s }

// --- テスト ---

// TestService_Create_Success は物品作成と所有者の設定を検証する。
func TestService_Create_Success(t *testing.T) {
	itemRepo := &mockItemRepo{
		createFn: func(ctx context.Context, item *model.Item) error {
			item.ID = 10
			return nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	item, err := svc.Create(context.Background(), 1, CreateInput{
		Name:        "ドリル",
		Description: "電動ドリル",
		Available:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != 10 {
		t.Errorf("ID = %d, want 10", item.ID)
	}
	if item.OwnerID != 1 {
		t.Errorf("OwnerID = %d, want 1", item.OwnerID)
	}
}

// TestService_Create_OwnerNotFound は存在しない所有者による作成エラーを検証する。
func TestService_Create_OwnerNotFound(t *testing.T) {
	svc := newTestService(&mockItemRepo{}, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.Create(context.Background(), 99, CreateInput{Name: "ドリル", Description: "説明", Available: true})
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_Create_UnknownRequest は存在しないリクエストの参照エラーを検証する。
func TestService_Create_UnknownRequest(t *testing.T) {
	requestRepo := &mockRequestRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.ItemRequest, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockItemRepo{}, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, requestRepo)

	reqID := int64(5)
	_, err := svc.Create(context.Background(), 1, CreateInput{
		Name: "ドリル", Description: "説明", Available: true, RequestID: &reqID,
	})
	assertAPIErrorCode(t, err, model.ErrCodeRequestNotFound)
}

// TestService_Create_SanitizesInput は名前と説明からHTMLタグが除去されることを検証する。
func TestService_Create_SanitizesInput(t *testing.T) {
	var created *model.Item
	itemRepo := &mockItemRepo{
		createFn: func(ctx context.Context, item *model.Item) error {
			created = item
			return nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.Create(context.Background(), 1, CreateInput{
		Name:        "<b>ドリル</b>",
		Description: `説明<script>alert("x")</script>`,
		Available:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "ドリル" {
		t.Errorf("Name = %q, want ドリル", created.Name)
	}
	if created.Description != "説明" {
		t.Errorf("Description = %q, want 説明", created.Description)
	}
}

// TestService_Update_MergesPatch はnilフィールドが既存値を維持することを検証する。
func TestService_Update_MergesPatch(t *testing.T) {
	var updated *model.Item
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, Name: "ドリル", Description: "電動ドリル", OwnerID: 1, Available: true}, nil
		},
		updateFn: func(ctx context.Context, item *model.Item) error {
			updated = item
			return nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	available := false
	result, err := svc.Update(context.Background(), 1, 10, model.ItemPatch{Available: &available})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected item to be persisted")
	}
	if result.Name != "ドリル" || result.Description != "電動ドリル" {
		t.Errorf("unchanged fields were modified: %+v", result)
	}
	if result.Available {
		t.Error("Available = true, want false")
	}
}

// TestService_Update_NotOwner は所有者以外による更新が拒否されることを検証する。
func TestService_Update_NotOwner(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(2), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.Update(context.Background(), 2, 10, model.ItemPatch{Name: strPtr("新しい名前")})
	assertAPIErrorCode(t, err, model.ErrCodeNotOwner)
}

// TestService_Update_ItemNotFound は存在しない物品の更新エラーを検証する。
func TestService_Update_ItemNotFound(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return nil, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.Update(context.Background(), 1, 10, model.ItemPatch{Name: strPtr("新しい名前")})
	assertAPIErrorCode(t, err, model.ErrCodeItemNotFound)
}

// TestService_GetDetail_OwnerSeesBookings は直近・直後の予約情報が
// 所有者本人にのみ表示されることを検証する。
func TestService_GetDetail_OwnerSeesBookings(t *testing.T) {
	now := time.Now()
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, Name: "ドリル", OwnerID: 1, Available: true}, nil
		},
	}
	bookingRepo := &mockBookingRepo{
		findLastFn: func(ctx context.Context, itemID int64, at time.Time) (*model.BookingRef, error) {
			return &model.BookingRef{ID: 100, BookerID: 2, Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour)}, nil
		},
		findNextFn: func(ctx context.Context, itemID int64, at time.Time) (*model.BookingRef, error) {
			return &model.BookingRef{ID: 101, BookerID: 3, Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour)}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), bookingRepo, &mockCommentRepo{}, &mockRequestRepo{})

	// 所有者本人の参照
	detail, err := svc.GetDetail(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.LastBooking == nil || detail.LastBooking.ID != 100 {
		t.Errorf("LastBooking = %+v, want ID=100", detail.LastBooking)
	}
	if detail.NextBooking == nil || detail.NextBooking.ID != 101 {
		t.Errorf("NextBooking = %+v, want ID=101", detail.NextBooking)
	}

	// 他ユーザーの参照では予約情報を含めない
	detail, err = svc.GetDetail(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.LastBooking != nil || detail.NextBooking != nil {
		t.Error("expected booking refs to be hidden from non-owner")
	}
}

// TestService_GetDetail_IncludesComments はコメント一覧が常に含まれることを検証する。
func TestService_GetDetail_IncludesComments(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	commentRepo := &mockCommentRepo{
		listByItemFn: func(ctx context.Context, itemID int64) ([]model.CommentWithAuthor, error) {
			return []model.CommentWithAuthor{
				{Comment: model.Comment{ID: 1, Text: "便利でした"}, AuthorName: "booker"},
			}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(2), &mockBookingRepo{}, commentRepo, &mockRequestRepo{})

	detail, err := svc.GetDetail(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].AuthorName != "booker" {
		t.Errorf("Comments = %+v, want 1 comment by booker", detail.Comments)
	}
}

// TestService_Search_BlankText は空白のみの検索語が
// ストアに問い合わせず空の一覧を返すことを検証する。
func TestService_Search_BlankText(t *testing.T) {
	called := false
	itemRepo := &mockItemRepo{
		searchFn: func(ctx context.Context, text string, page repository.Page) ([]model.Item, error) {
			called = true
			return nil, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	items, err := svc.Search(context.Background(), "   ", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("expected store to not be queried for blank text")
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty slice", items)
	}
}

// TestService_Search_PassesPage はページネーションの引き渡しを検証する。
func TestService_Search_PassesPage(t *testing.T) {
	var gotPage repository.Page
	itemRepo := &mockItemRepo{
		searchFn: func(ctx context.Context, text string, page repository.Page) ([]model.Item, error) {
			gotPage = page
			return []model.Item{{ID: 10, Name: "ドリル"}}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	items, err := svc.Search(context.Background(), "ドリル", 20, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	if gotPage.Offset != 20 || gotPage.Limit != 20 {
		t.Errorf("page = %+v, want Offset=20 Limit=20", gotPage)
	}
}

// TestService_CreateComment_Success は完了済み予約者によるコメント投稿を検証する。
func TestService_CreateComment_Success(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	bookingRepo := &mockBookingRepo{
		hasCompletedFn: func(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
			return true, nil
		},
	}
	commentRepo := &mockCommentRepo{
		createFn: func(ctx context.Context, comment *model.Comment) error {
			comment.ID = 1
			return nil
		},
	}
	svc := newTestService(itemRepo, existingUser(2), bookingRepo, commentRepo, &mockRequestRepo{})

	comment, err := svc.CreateComment(context.Background(), 2, 10, "便利でした")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.ID != 1 {
		t.Errorf("ID = %d, want 1", comment.ID)
	}
	if comment.AuthorName != "user" {
		t.Errorf("AuthorName = %q, want user", comment.AuthorName)
	}
	if comment.Created.IsZero() {
		t.Error("expected Created to be set")
	}
}

// TestService_CreateComment_NoCompletedBooking は貸し出し完了前の
// コメント投稿が拒否されることを検証する。
func TestService_CreateComment_NoCompletedBooking(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	bookingRepo := &mockBookingRepo{
		hasCompletedFn: func(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(2), bookingRepo, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.CreateComment(context.Background(), 2, 10, "便利でした")
	assertAPIErrorCode(t, err, model.ErrCodeNoCompletedBooking)
}

// TestService_CreateComment_BlankAfterSanitize はタグのみの本文が拒否されることを検証する。
func TestService_CreateComment_BlankAfterSanitize(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(2), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	_, err := svc.CreateComment(context.Background(), 2, 10, "<img src=x onerror=alert(1)>")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

// TestService_ListByOwner_BuildsDetails は所有物品一覧が
// 物品IDごとに詳細を組み立てることを検証する。
func TestService_ListByOwner_BuildsDetails(t *testing.T) {
	itemRepo := &mockItemRepo{
		listIDsByOwnerFn: func(ctx context.Context, ownerID int64, page repository.Page) ([]int64, error) {
			return []int64{10, 11}, nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
			return &model.Item{ID: id, OwnerID: 1, Available: true}, nil
		},
	}
	svc := newTestService(itemRepo, existingUser(1), &mockBookingRepo{}, &mockCommentRepo{}, &mockRequestRepo{})

	details, err := svc.ListByOwner(context.Background(), 1, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("len = %d, want 2", len(details))
	}
	if details[0].ID != 10 || details[1].ID != 11 {
		t.Errorf("IDs = %d, %d, want 10, 11", details[0].ID, details[1].ID)
	}
}
