// Package repository implements the data access layer over MySQL.  This
// file defines sentinel errors shared across repositories so handlers can
// map failure scenarios to the response taxonomy without inspecting raw
// driver errors: conflicts (duplicate keys, already-subscribed), missing
// rows and cross-table business rules each get their own value.
package repository

import "errors"

// ErrEmailTaken is returned when registration hits an existing email or
// username in the users table.
var ErrEmailTaken = errors.New("email or username already taken")

// ErrInquiryNotFound is returned when a status update or delete references
// an inquiry that does not exist.
var ErrInquiryNotFound = errors.New("inquiry not found")

// ErrNotRegistered is returned when a newsletter subscription references an
// email that does not belong to a registered user.  The newsletters table
// carries a foreign key on users.user_email, so the insert would fail anyway;
// checking first yields a friendlier message.
var ErrNotRegistered = errors.New("email not registered")

// ErrAlreadySubscribed is returned when subscribing an email whose
// subscription row is already active.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// ErrNotSubscribed is returned when unsubscribing an email with no
// subscription row at all.
var ErrNotSubscribed = errors.New("email not subscribed")

// ErrAlreadyInactive is returned when unsubscribing an email whose
// subscription row is already inactive.  The caller should report a no-op
// failure rather than silent success.
var ErrAlreadyInactive = errors.New("email already unsubscribed")
