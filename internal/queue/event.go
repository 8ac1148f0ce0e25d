// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// InquirySubmittedEvent is published after an inquiry and its items have
// been committed.  It carries enough for downstream consumers to log or
// notify staff without querying the primary database.  UserID is nil for
// anonymous submissions.
type InquirySubmittedEvent struct {
    InquiryID   uint64   `json:"inquiry_id"`
    UserID      *uint64  `json:"user_id,omitempty"`
    Fname       string   `json:"fname"`
    Lname       string   `json:"lname"`
    Email       string   `json:"email"`
    ContactPref string   `json:"contact_pref"`
    ProductIDs  []uint64 `json:"product_ids"`
    SubmittedAt string   `json:"submitted_at"`
}
