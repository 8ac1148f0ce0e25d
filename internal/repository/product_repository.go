package repository

import (
	"context"
	"database/sql"
	"strings"
)

// ProductRepo is the inquiry flow's window into the catalog.  The catalog
// itself is managed elsewhere; inquiries only need existence checks and the
// display columns joined into the admin listing.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ExistsAll reports whether every one of the given product IDs currently
// exists in the products table.  IDs must already be positive and
// de-duplicated; the count comparison rejects the submission as a whole when
// any ID is missing.  An empty slice returns false.
func (r *ProductRepo) ExistsAll(ctx context.Context, ids []uint64) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := "SELECT COUNT(*) FROM products WHERE product_id IN (" + placeholders + ")"
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	var found int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found == len(ids), nil
}
