package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/reschevie/reschevie-api/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Fname        string
	Lname        string
	Contact      string
	CreatedAt    time.Time
}

// Admin mirrors the 'admins' table.  Admins live in their own namespace and
// never overlap with users for authorization purposes; login checks the
// users table first and admins second.
type Admin struct {
	ID           uint64
	Email        string
	PasswordHash string
	Fname        string
	Lname        string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a new user and returns its ID.  The password is hashed
// before storage.  Duplicate email or username yields ErrEmailTaken; the
// pre-check keeps the common case friendly, the 1062 mapping covers the
// race where two registrations slip past it.
func (r *UserRepo) Create(ctx context.Context, username, password, email, fname, lname, contact string, cost int) (uint64, error) {
	email = utils.NormalizeEmail(email)
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM users WHERE user_email=? OR user_username=? LIMIT 1",
		email, username).Scan(&existing)
	if err == nil {
		return 0, ErrEmailTaken
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_username, user_password, user_email, user_fname, user_lname, user_contact) VALUES (?,?,?,?,?,?)",
		username, hash, email, fname, lname, contact)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	email = utils.NormalizeEmail(email)
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, user_fname, user_lname, user_email, user_password FROM users WHERE user_email=? LIMIT 1",
		email).Scan(&u.ID, &u.Fname, &u.Lname, &u.Email, &u.PasswordHash)
	return u, err
}

// GetAdminByEmail fetches an admin by normalized email.
func (r *UserRepo) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	email = utils.NormalizeEmail(email)
	var a Admin
	var lname sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id, admin_fname, admin_lname, admin_email, admin_password FROM admins WHERE admin_email=? LIMIT 1",
		email).Scan(&a.ID, &a.Fname, &lname, &a.Email, &a.PasswordHash)
	if lname.Valid {
		a.Lname = lname.String
	}
	return a, err
}

// UserEmailExists reports whether a registered user owns the given email.
// The newsletter subscribe flow uses it to enforce the registered-email-only
// rule before touching the newsletters table.
func (r *UserRepo) UserEmailExists(ctx context.Context, email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM users WHERE user_email=? LIMIT 1", email).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
