package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/shareit/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// enrichedBookingColumns は予約・物品・予約者をJOINして取得する列リスト。
const enrichedBookingColumns = `
	b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status,
	i.name, i.description, i.owner_id, i.available, i.rentals, i.request_id,
	u.name, u.email`

// scanEnrichedBooking は1行分のJOIN結果をEnrichedBookingに読み取る。
func scanEnrichedBooking(scan func(dest ...any) error) (*model.EnrichedBooking, error) {
	eb := &model.EnrichedBooking{}
	var requestID sql.NullInt64

	err := scan(
		&eb.ID, &eb.ItemID, &eb.BookerID, &eb.Start, &eb.End, &eb.Status,
		&eb.Item.Name, &eb.Item.Description, &eb.Item.OwnerID,
		&eb.Item.Available, &eb.Item.Rentals, &requestID,
		&eb.Booker.Name, &eb.Booker.Email,
	)
	if err != nil {
		return nil, err
	}

	eb.Item.ID = eb.ItemID
	eb.Booker.ID = eb.BookerID
	if requestID.Valid {
		eb.Item.RequestID = &requestID.Int64
	}

	return eb, nil
}

// Create は予約を作成し、採番されたIDをbookingに設定する。
func (r *PostgresBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (item_id, booker_id, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		booking.ItemID, booking.BookerID, booking.Start, booking.End, booking.Status,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの予約を物品・予約者付きで取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id int64) (*model.EnrichedBooking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+enrichedBookingColumns+`
		 FROM bookings b
		 JOIN items i ON i.id = b.item_id
		 JOIN users u ON u.id = b.booker_id
		 WHERE b.id = $1`,
		id,
	)

	eb, err := scanEnrichedBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}

	return eb, nil
}

// LockForDecision はトランザクション内で予約行を排他ロックして取得する。
// 同一予約への並行confirmはこのロックで直列化され、後続は決定済み状態を観測する。
// 見つからない場合はnilを返す。
func (r *PostgresBookingRepo) LockForDecision(ctx context.Context, tx *sql.Tx, id int64) (*model.EnrichedBooking, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT`+enrichedBookingColumns+`
		 FROM bookings b
		 JOIN items i ON i.id = b.item_id
		 JOIN users u ON u.id = b.booker_id
		 WHERE b.id = $1
		 FOR UPDATE OF b`,
		id,
	)

	eb, err := scanEnrichedBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約行のロック取得に失敗しました: %w", err)
	}

	return eb, nil
}

// UpdateStatusTx はトランザクション内で予約の状態を更新する。
func (r *PostgresBookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗しました: %w", err)
	}
	return nil
}

// IncrementRentalsTx はトランザクション内で物品の貸し出し累計数を1増やす。
func (r *PostgresBookingRepo) IncrementRentalsTx(ctx context.Context, tx *sql.Tx, itemID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET rentals = rentals + 1 WHERE id = $1`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("貸し出し累計数の更新に失敗しました: %w", err)
	}
	return nil
}

// ListByBooker は予約者の予約一覧をstateで絞り込んで返す。
// 時間窓（CURRENT/PAST/FUTURE）はnowを基準に評価する。開始日時の降順。
func (r *PostgresBookingRepo) ListByBooker(
	ctx context.Context,
	bookerID int64,
	state model.BookingState,
	now time.Time,
	page Page,
) ([]model.EnrichedBooking, error) {
	return r.listFiltered(ctx, "b.booker_id", bookerID, state, now, page)
}

// ListByOwner は所有物品に対する予約一覧をstateで絞り込んで返す。
func (r *PostgresBookingRepo) ListByOwner(
	ctx context.Context,
	ownerID int64,
	state model.BookingState,
	now time.Time,
	page Page,
) ([]model.EnrichedBooking, error) {
	return r.listFiltered(ctx, "i.owner_id", ownerID, state, now, page)
}

// listFiltered は対象列（予約者または所有者）とstateに応じた絞り込みクエリを構築して実行する。
func (r *PostgresBookingRepo) listFiltered(
	ctx context.Context,
	subjectColumn string,
	subjectID int64,
	state model.BookingState,
	now time.Time,
	page Page,
) ([]model.EnrichedBooking, error) {
	baseQuery := `SELECT` + enrichedBookingColumns + `
		 FROM bookings b
		 JOIN items i ON i.id = b.item_id
		 JOIN users u ON u.id = b.booker_id
		 WHERE ` + subjectColumn + ` = $1`

	args := []interface{}{subjectID}
	argIndex := 2

	// 絞り込み条件
	switch state {
	case model.BookingStatePast:
		baseQuery += fmt.Sprintf(" AND b.end_date < $%d", argIndex)
		args = append(args, now)
		argIndex++
	case model.BookingStateFuture:
		baseQuery += fmt.Sprintf(" AND b.start_date > $%d", argIndex)
		args = append(args, now)
		argIndex++
	case model.BookingStateCurrent:
		baseQuery += fmt.Sprintf(" AND b.start_date < $%d AND b.end_date > $%d", argIndex, argIndex)
		args = append(args, now)
		argIndex++
	case model.BookingStateWaiting:
		baseQuery += fmt.Sprintf(" AND b.status = $%d", argIndex)
		args = append(args, model.BookingStatusWaiting)
		argIndex++
	case model.BookingStateRejected:
		baseQuery += fmt.Sprintf(" AND b.status = $%d", argIndex)
		args = append(args, model.BookingStatusRejected)
		argIndex++
	case model.BookingStateAll:
		// 全件: 追加条件なし
	}

	// ソートとページネーション
	baseQuery += fmt.Sprintf(" ORDER BY b.start_date DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookings []model.EnrichedBooking
	for rows.Next() {
		eb, err := scanEnrichedBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		bookings = append(bookings, *eb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}

	return bookings, nil
}

// FindLastForItem は物品の直近の承認済み予約（start < now）を返す。該当がない場合はnil。
func (r *PostgresBookingRepo) FindLastForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error) {
	ref := &model.BookingRef{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, booker_id, start_date, end_date
		 FROM bookings
		 WHERE item_id = $1 AND status = $2 AND start_date < $3
		 ORDER BY start_date DESC
		 LIMIT 1`,
		itemID, model.BookingStatusApproved, now,
	).Scan(&ref.ID, &ref.BookerID, &ref.Start, &ref.End)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("直近予約の取得に失敗しました: %w", err)
	}

	return ref, nil
}

// FindNextForItem は物品の直後の承認済み予約（start > now）を返す。該当がない場合はnil。
func (r *PostgresBookingRepo) FindNextForItem(ctx context.Context, itemID int64, now time.Time) (*model.BookingRef, error) {
	ref := &model.BookingRef{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, booker_id, start_date, end_date
		 FROM bookings
		 WHERE item_id = $1 AND status = $2 AND start_date > $3
		 ORDER BY start_date ASC
		 LIMIT 1`,
		itemID, model.BookingStatusApproved, now,
	).Scan(&ref.ID, &ref.BookerID, &ref.Start, &ref.End)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("直後予約の取得に失敗しました: %w", err)
	}

	return ref, nil
}

// HasCompletedBooking は予約者が物品の貸し出しを完了済みかどうかを返す。
func (r *PostgresBookingRepo) HasCompletedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE item_id = $1 AND booker_id = $2 AND status = $3 AND end_date < $4
		 )`,
		itemID, bookerID, model.BookingStatusApproved, now,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("完了済み予約の確認に失敗しました: %w", err)
	}

	return exists, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
