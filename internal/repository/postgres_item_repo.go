package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/shareit/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した物品リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// FindByID は指定IDの物品を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	item := &model.Item{}
	var requestID sql.NullInt64

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, available, rentals, request_id
		 FROM items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.OwnerID,
		&item.Available, &item.Rentals, &requestID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("物品の取得に失敗しました: %w", err)
	}

	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}

	return item, nil
}

// Create は物品を作成し、採番されたIDをitemに設定する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.Item) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO items (name, description, owner_id, available, rentals, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.Name, item.Description, item.OwnerID, item.Available,
		item.Rentals, item.RequestID,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("物品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は物品を上書き更新する。
func (r *PostgresItemRepo) Update(ctx context.Context, item *model.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET name = $2, description = $3, available = $4, request_id = $5
		 WHERE id = $1`,
		item.ID, item.Name, item.Description, item.Available, item.RequestID,
	)
	if err != nil {
		return fmt.Errorf("物品の更新に失敗しました: %w", err)
	}
	return nil
}

// ListIDsByOwner は所有者の物品IDをID昇順・ページネーション付きで返す。
func (r *PostgresItemRepo) ListIDsByOwner(ctx context.Context, ownerID int64, page Page) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM items WHERE owner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("所有物品IDの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("物品ID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("所有物品IDの走査に失敗しました: %w", err)
	}

	return ids, nil
}

// Search は名前または説明にtextを含む貸し出し可能な物品を返す。
// 大文字小文字を区別しない。ID昇順・ページネーション付き。
func (r *PostgresItemRepo) Search(ctx context.Context, text string, page Page) ([]model.Item, error) {
	pattern := "%" + text + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, owner_id, available, rentals, request_id
		 FROM items
		 WHERE available = TRUE AND (name ILIKE $1 OR description ILIKE $1)
		 ORDER BY id LIMIT $2 OFFSET $3`,
		pattern, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("物品の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListByRequestID は指定リクエストに応えて出品された物品をID昇順で返す。
func (r *PostgresItemRepo) ListByRequestID(ctx context.Context, requestID int64) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, owner_id, available, rentals, request_id
		 FROM items WHERE request_id = $1 ORDER BY id`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("リクエストに対する物品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// scanItems は物品のクエリ結果をスライスに読み取る。
func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var requestID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.OwnerID,
			&item.Available, &item.Rentals, &requestID); err != nil {
			return nil, fmt.Errorf("物品行の読み取りに失敗しました: %w", err)
		}
		if requestID.Valid {
			item.RequestID = &requestID.Int64
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("物品一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
