package repository

import (
    "context"
    "database/sql"
    "time"
)

// Allowed inquiry workflow states.  Status moves freely between these four
// values under admin control; anything else is rejected before the database
// is touched.
const (
    StatusPending    = "pending"
    StatusInProgress = "in-progress"
    StatusCompleted  = "completed"
    StatusCancelled  = "cancelled"
)

// ValidStatus reports whether s is one of the four inquiry states.
func ValidStatus(s string) bool {
    switch s {
    case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
        return true
    }
    return false
}

// Contact preference values accepted on submission.
const (
    ContactByEmail = "email"
    ContactByPhone = "phone"
)

// NormalizeContactPref coerces anything outside the two allowed values to
// the email default rather than rejecting the submission.
func NormalizeContactPref(s string) string {
    if s == ContactByPhone {
        return ContactByPhone
    }
    return ContactByEmail
}

// InquiryRepo provides persistence for inquiries and their product line
// items.  An inquiry header is never written without at least one item; the
// two inserts share a transaction owned by the caller.
type InquiryRepo struct {
    db *sql.DB
}

func NewInquiryRepo(db *sql.DB) *InquiryRepo { return &InquiryRepo{db: db} }

// DB exposes the underlying handle so handlers can open the transaction
// that spans the header and item inserts.
func (r *InquiryRepo) DB() *sql.DB { return r.db }

// InquiryRecord mirrors the inquiries table.  UserID is nil for anonymous
// submissions.
type InquiryRecord struct {
    ID              uint64
    UserID          *uint64
    Fname           string
    Lname           string
    Email           string
    Phone           string
    ContactPref     string
    SpecialRequests string
    Status          string
    SubmittedAt     time.Time
    UpdatedAt       time.Time
}

// CreateTx inserts a new inquiry header within the scope of an existing
// transaction and populates the generated ID on the record.  Status defaults
// to pending in the schema.  The caller must commit or roll back.
func (r *InquiryRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *InquiryRecord) error {
    const q = `INSERT INTO inquiries
        (user_id, fname, lname, email, phone, contact_pref, special_requests)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
    var userID interface{}
    if rec.UserID != nil {
        userID = *rec.UserID
    }
    result, err := tx.ExecContext(ctx, q, userID, rec.Fname, rec.Lname, rec.Email,
        rec.Phone, rec.ContactPref, rec.SpecialRequests)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// CreateItemsBulkTx inserts all item rows for an inquiry in a single
// statement inside the provided transaction.  Passing an empty slice has no
// effect and returns nil.
func (r *InquiryRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, inquiryID uint64, productIDs []uint64) error {
    if len(productIDs) == 0 {
        return nil
    }
    query := `INSERT INTO inquiry_items (inquiry_id, product_id) VALUES `
    args := make([]interface{}, 0, len(productIDs)*2)
    for i, pid := range productIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, inquiryID, pid)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// InquiryItemDetail is one resolved line item in an admin listing.
type InquiryItemDetail struct {
    ProductID    uint64 `json:"product_id"`
    ProductName  string `json:"product_name"`
    ProductType  string `json:"product_type"`
    ProductEmoji string `json:"product_emoji"`
}

// InquiryDetail is an inquiry with its resolved items, shaped for the admin
// listing response.
type InquiryDetail struct {
    ID              uint64              `json:"inquiry_id"`
    UserID          *uint64             `json:"user_id"`
    Fname           string              `json:"fname"`
    Lname           string              `json:"lname"`
    Email           string              `json:"email"`
    Phone           string              `json:"phone"`
    ContactPref     string              `json:"contact_pref"`
    SpecialRequests string              `json:"special_requests"`
    Status          string              `json:"status"`
    SubmittedAt     time.Time           `json:"submitted_at"`
    UpdatedAt       time.Time           `json:"updated_at"`
    Items           []InquiryItemDetail `json:"items"`
}

// List returns all inquiries with their resolved items, newest submission
// first.  The optional statusFilter restricts results to one workflow state;
// callers must validate it beforehand.  Items are aggregated from a single
// joined query, grouped in memory by inquiry ID.
func (r *InquiryRepo) List(ctx context.Context, statusFilter string) ([]InquiryDetail, error) {
    query := `SELECT i.inquiry_id, i.user_id, i.fname, i.lname, i.email,
                     i.phone, i.contact_pref, i.special_requests, i.status,
                     i.submitted_at, i.updated_at,
                     ii.product_id, p.product_name, p.product_type, p.product_emoji
              FROM inquiries i
              LEFT JOIN inquiry_items ii ON ii.inquiry_id = i.inquiry_id
              LEFT JOIN products p ON p.product_id = ii.product_id`
    args := []interface{}{}
    if statusFilter != "" {
        query += " WHERE i.status = ?"
        args = append(args, statusFilter)
    }
    query += " ORDER BY i.submitted_at DESC, i.inquiry_id DESC"

    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]InquiryDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            d          InquiryDetail
            userID     sql.NullInt64
            phone      sql.NullString
            requests   sql.NullString
            productID  sql.NullInt64
            prodName   sql.NullString
            prodType   sql.NullString
            prodEmoji  sql.NullString
        )
        if err := rows.Scan(
            &d.ID, &userID, &d.Fname, &d.Lname, &d.Email,
            &phone, &d.ContactPref, &requests, &d.Status,
            &d.SubmittedAt, &d.UpdatedAt,
            &productID, &prodName, &prodType, &prodEmoji,
        ); err != nil {
            return nil, err
        }
        if userID.Valid {
            uid := uint64(userID.Int64)
            d.UserID = &uid
        }
        d.Phone = phone.String
        d.SpecialRequests = requests.String

        pos, seen := index[d.ID]
        if !seen {
            d.Items = []InquiryItemDetail{}
            details = append(details, d)
            pos = len(details) - 1
            index[d.ID] = pos
        }
        if productID.Valid {
            details[pos].Items = append(details[pos].Items, InquiryItemDetail{
                ProductID:    uint64(productID.Int64),
                ProductName:  prodName.String,
                ProductType:  prodType.String,
                ProductEmoji: prodEmoji.String,
            })
        }
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// Exists reports whether an inquiry with the given ID is present.
func (r *InquiryRepo) Exists(ctx context.Context, id uint64) (bool, error) {
    var found uint64
    err := r.db.QueryRowContext(ctx,
        "SELECT inquiry_id FROM inquiries WHERE inquiry_id=? LIMIT 1", id).Scan(&found)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// UpdateStatus sets the workflow state of an inquiry.  The updated_at column
// auto-touches via the schema.  ErrInquiryNotFound is returned when no row
// matched.
func (r *InquiryRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE inquiries SET status=? WHERE inquiry_id=?", status, id)
    if err != nil {
        return err
    }
    // RowsAffected is zero both for a missing row and for a no-op update to
    // the same status, so the existence check happens before calling this.
    _, err = res.RowsAffected()
    return err
}

// Delete removes an inquiry and its items in one transaction.  Items are
// deleted explicitly before the header so the operation holds on stores
// without native cascade.  ErrInquiryNotFound is returned when the header
// did not exist.
func (r *InquiryRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := tx.ExecContext(ctx,
        "DELETE FROM inquiry_items WHERE inquiry_id=?", id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx,
        "DELETE FROM inquiries WHERE inquiry_id=?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInquiryNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
