package handler

import (
	"time"

	"github.com/hitoshi/shareit/internal/model"
)

// userResponse はユーザーのAPIレスポンス。
type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// itemResponse は物品のAPIレスポンス。
type itemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Rentals     int    `json:"rentals"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

func toItemResponse(i *model.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		Rentals:     i.Rentals,
		RequestID:   i.RequestID,
	}
}

func toItemResponses(items []model.Item) []itemResponse {
	responses := make([]itemResponse, len(items))
	for i := range items {
		responses[i] = toItemResponse(&items[i])
	}
	return responses
}

// bookingRefResponse は物品詳細に埋め込む予約参照のレスポンス。
type bookingRefResponse struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func toBookingRefResponse(ref *model.BookingRef) *bookingRefResponse {
	if ref == nil {
		return nil
	}
	return &bookingRefResponse{
		ID:       ref.ID,
		BookerID: ref.BookerID,
		Start:    ref.Start,
		End:      ref.End,
	}
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

func toCommentResponse(c *model.CommentWithAuthor) commentResponse {
	return commentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    c.Created,
	}
}

// itemDetailResponse は物品詳細のAPIレスポンス。
// 直近・直後の予約は所有者本人が参照した場合のみ設定される。
type itemDetailResponse struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Available   bool                `json:"available"`
	Rentals     int                 `json:"rentals"`
	RequestID   *int64              `json:"requestId,omitempty"`
	LastBooking *bookingRefResponse `json:"lastBooking"`
	NextBooking *bookingRefResponse `json:"nextBooking"`
	Comments    []commentResponse   `json:"comments"`
}

func toItemDetailResponse(d *model.ItemDetail) itemDetailResponse {
	comments := make([]commentResponse, len(d.Comments))
	for i := range d.Comments {
		comments[i] = toCommentResponse(&d.Comments[i])
	}
	return itemDetailResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Available:   d.Available,
		Rentals:     d.Rentals,
		RequestID:   d.RequestID,
		LastBooking: toBookingRefResponse(d.LastBooking),
		NextBooking: toBookingRefResponse(d.NextBooking),
		Comments:    comments,
	}
}

// bookingResponse は予約のAPIレスポンス。物品と予約者のサマリーを含む。
type bookingResponse struct {
	ID     int64        `json:"id"`
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Status string       `json:"status"`
	Booker userResponse `json:"booker"`
	Item   itemResponse `json:"item"`
}

func toBookingResponse(eb *model.EnrichedBooking) bookingResponse {
	return bookingResponse{
		ID:     eb.ID,
		Start:  eb.Start,
		End:    eb.End,
		Status: string(eb.Status),
		Booker: toUserResponse(&eb.Booker),
		Item:   toItemResponse(&eb.Item),
	}
}

func toBookingResponses(bookings []model.EnrichedBooking) []bookingResponse {
	responses := make([]bookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = toBookingResponse(&bookings[i])
	}
	return responses
}

// requestResponse は物品リクエストのAPIレスポンス。応答物品の一覧を含む。
type requestResponse struct {
	ID          int64          `json:"id"`
	Description string         `json:"description"`
	Created     time.Time      `json:"created"`
	Items       []itemResponse `json:"items"`
}

func toRequestResponse(r *model.ItemRequestWithItems) requestResponse {
	return requestResponse{
		ID:          r.ID,
		Description: r.Description,
		Created:     r.Created,
		Items:       toItemResponses(r.Items),
	}
}

func toRequestResponses(requests []model.ItemRequestWithItems) []requestResponse {
	responses := make([]requestResponse, len(requests))
	for i := range requests {
		responses[i] = toRequestResponse(&requests[i])
	}
	return responses
}
