package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/reschevie/reschevie-api/internal/utils"
)

// NewsletterRepo manages newsletter subscription rows.  An email has at most
// one row, ever: re-subscribing flips is_active back on and refreshes the
// timestamp, and unsubscribing is a soft delete that keeps the row.
type NewsletterRepo struct {
	db *sql.DB
}

func NewNewsletterRepo(db *sql.DB) *NewsletterRepo { return &NewsletterRepo{db: db} }

// Subscription mirrors the newsletters table.
type Subscription struct {
	ID           uint64
	Email        string
	SubscribedAt time.Time
	IsActive     bool
}

// GetByEmail fetches the subscription row for an email, active or not.
// sql.ErrNoRows is returned when the email has never subscribed.
func (r *NewsletterRepo) GetByEmail(ctx context.Context, email string) (Subscription, error) {
	email = utils.NormalizeEmail(email)
	var s Subscription
	err := r.db.QueryRowContext(ctx,
		"SELECT newsletter_id, newsletter_email, newsletter_subbed_at, is_active FROM newsletters WHERE newsletter_email=? LIMIT 1",
		email).Scan(&s.ID, &s.Email, &s.SubscribedAt, &s.IsActive)
	return s, err
}

// Insert creates a fresh active subscription row.  A duplicate-key failure
// means a concurrent subscribe won the race; it is reported as
// ErrAlreadySubscribed so the caller can surface the same message the
// existence check would have produced.
func (r *NewsletterRepo) Insert(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO newsletters (newsletter_email) VALUES (?)", email)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

// Reactivate flips an inactive row back to active and refreshes the
// subscription timestamp.
func (r *NewsletterRepo) Reactivate(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	_, err := r.db.ExecContext(ctx,
		"UPDATE newsletters SET is_active=1, newsletter_subbed_at=NOW() WHERE newsletter_email=?",
		email)
	return err
}

// Deactivate soft-deletes a subscription.  The row and its history remain.
func (r *NewsletterRepo) Deactivate(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	_, err := r.db.ExecContext(ctx,
		"UPDATE newsletters SET is_active=0 WHERE newsletter_email=?", email)
	return err
}

// SubscriberDetail is one row of the admin subscriber listing, with the
// owning user's name left-joined in for display.
type SubscriberDetail struct {
	ID           uint64    `json:"newsletter_id"`
	Email        string    `json:"newsletter_email"`
	SubscribedAt time.Time `json:"newsletter_subbed_at"`
	IsActive     bool      `json:"is_active"`
	UserFname    *string   `json:"user_fname"`
	UserLname    *string   `json:"user_lname"`
}

// List returns subscribers newest-first.  By default only active rows are
// returned; includeInactive widens the listing to soft-deleted rows too.
func (r *NewsletterRepo) List(ctx context.Context, includeInactive bool) ([]SubscriberDetail, error) {
	query := `SELECT n.newsletter_id, n.newsletter_email, n.newsletter_subbed_at, n.is_active,
	                 u.user_fname, u.user_lname
	          FROM newsletters n
	          LEFT JOIN users u ON u.user_email = n.newsletter_email`
	if !includeInactive {
		query += " WHERE n.is_active = 1"
	}
	query += " ORDER BY n.newsletter_subbed_at DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]SubscriberDetail, 0)
	for rows.Next() {
		var (
			d     SubscriberDetail
			fname sql.NullString
			lname sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Email, &d.SubscribedAt, &d.IsActive, &fname, &lname); err != nil {
			return nil, err
		}
		if fname.Valid {
			d.UserFname = &fname.String
		}
		if lname.Valid {
			d.UserLname = &lname.String
		}
		subs = append(subs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
