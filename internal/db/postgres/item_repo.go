package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Wishly/internal/core/items"
)

type postgresItemRepo struct {
	db *sql.DB
}

// NewItemRepository creates a new PostgreSQL item repository
func NewItemRepository(db *sql.DB) items.Repository {
	return &postgresItemRepo{db: db}
}

const itemColumns = `id, owner_id, title, url, note, purchased, position,
	meta_title, meta_description, meta_price, meta_currency, meta_fetched_at,
	created_at, updated_at`

// Create inserts a new item, placing it at the end of the owner's list
func (r *postgresItemRepo) Create(ctx context.Context, item *items.Item) error {
	query := `
		INSERT INTO items (id, owner_id, title, url, note, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE owner_id = $2),
			$6, $7)
		RETURNING position`

	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.OwnerID, item.Title, nullString(item.URL), nullString(item.Note),
		item.CreatedAt, item.UpdatedAt).
		Scan(&item.Position)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID retrieves a single item
func (r *postgresItemRepo) GetByID(ctx context.Context, id string) (*items.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, items.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListByOwner returns the owner's items in manual order
func (r *postgresItemRepo) ListByOwner(ctx context.Context, ownerID string) ([]*items.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY position, created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var result []*items.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// Update rewrites the user-editable fields and the metadata subset
func (r *postgresItemRepo) Update(ctx context.Context, item *items.Item) error {
	query := `
		UPDATE items
		SET title = $2, url = $3, note = $4, purchased = $5,
		    meta_title = $6, meta_description = $7, meta_price = $8,
		    meta_currency = $9, meta_fetched_at = $10, updated_at = $11
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		item.ID, item.Title, nullString(item.URL), nullString(item.Note), item.Purchased,
		nullString(item.Meta.Title), nullString(item.Meta.Description),
		nullFloat(item.Meta.Price), nullString(item.Meta.Currency), nullTime(item.Meta.FetchedAt),
		item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireRow(res)
}

// Delete removes an item
func (r *postgresItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireRow(res)
}

// UpdatePositions rewrites the manual ordering in one transaction.
// Position is the index in orderedIDs; items not listed are untouched.
func (r *postgresItemRepo) UpdatePositions(ctx context.Context, ownerID string, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE items SET position = $3, updated_at = NOW() WHERE id = $1 AND owner_id = $2`
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, query, id, ownerID, i+1); err != nil {
			return fmt.Errorf("failed to update position for item %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

// UpdateMetadata applies a partial update of the metadata subset. Only
// non-nil patch fields produce SET clauses.
func (r *postgresItemRepo) UpdateMetadata(ctx context.Context, id string, patch items.MetaPatch) error {
	var sets []string
	var args []any
	args = append(args, id)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("meta_title", nullString(*patch.Title))
	}
	if patch.Description != nil {
		add("meta_description", nullString(*patch.Description))
	}
	if patch.ClearPrice {
		sets = append(sets, "meta_price = NULL", "meta_currency = NULL")
	} else {
		if patch.Price != nil {
			add("meta_price", *patch.Price)
		}
		if patch.Currency != nil {
			add("meta_currency", nullString(*patch.Currency))
		}
	}
	if patch.FetchedAt != nil {
		add("meta_fetched_at", *patch.FetchedAt)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE items SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item metadata: %w", err)
	}
	return requireRow(res)
}

// ListStaleMetadata returns linked items with missing or stale metadata,
// oldest first
func (r *postgresItemRepo) ListStaleMetadata(ctx context.Context, cutoff time.Time, limit int) ([]*items.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE url IS NOT NULL
		  AND (meta_fetched_at IS NULL OR meta_fetched_at < $1)
		ORDER BY meta_fetched_at NULLS FIRST
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale items: %w", err)
	}
	defer rows.Close()

	var result []*items.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*items.Item, error) {
	item := &items.Item{}
	var url, note, metaTitle, metaDesc, metaCurrency sql.NullString
	var metaPrice sql.NullFloat64
	var metaFetchedAt sql.NullTime

	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &url, &note, &item.Purchased, &item.Position,
		&metaTitle, &metaDesc, &metaPrice, &metaCurrency, &metaFetchedAt,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.URL = url.String
	item.Note = note.String
	item.Meta.Title = metaTitle.String
	item.Meta.Description = metaDesc.String
	item.Meta.Currency = metaCurrency.String
	if metaPrice.Valid {
		item.Meta.Price = &metaPrice.Float64
	}
	if metaFetchedAt.Valid {
		t := metaFetchedAt.Time
		item.Meta.FetchedAt = &t
	}
	return item, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return items.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
