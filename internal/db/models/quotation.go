package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for the quotation model
const (
	// QuoteStatusField is the field name for quotation status
	QuoteStatusField = "status"
)

// QuoteStatus represents the current state of a quotation
type QuoteStatus string

// Quotation status constants. PENDING is the only non-terminal state; every
// other status is terminal and has no outgoing transitions.
const (
	// QuoteStatusPending indicates the quote awaits a customer decision
	QuoteStatusPending QuoteStatus = "PENDING"
	// QuoteStatusAccepted indicates the customer accepted the quote
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	// QuoteStatusRejected indicates the customer rejected the quote
	QuoteStatusRejected QuoteStatus = "REJECTED"
	// QuoteStatusCancelled indicates the provider withdrew the quote
	QuoteStatusCancelled QuoteStatus = "CANCELLED"
	// QuoteStatusExpired indicates the validity window elapsed before a decision
	QuoteStatusExpired QuoteStatus = "EXPIRED"
)

// Quotation is a provider's offer for a job. At most one quotation per job
// may ever hold ACCEPTED status, and a (job, provider) pair may hold at most
// one active (PENDING or ACCEPTED) quotation at a time.
type Quotation struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	JobID         string     `json:"job_id" gorm:"not null;index"`
	ProviderID    string     `json:"provider_id" gorm:"not null;index"`
	ProviderEmail string     `json:"provider_email"`
	CustomerID    string     `json:"customer_id" gorm:"index"`
	InviteID      *string    `json:"invite_id,omitempty" gorm:"index"`
	Price         float64    `json:"price" gorm:"not null"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	Message       string     `json:"message,omitempty" gorm:"type:text"`
	ProposedStart *time.Time `json:"proposed_start,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`

	Status        QuoteStatus `json:"status" gorm:"not null;index;default:PENDING"`
	CustomerNotes string      `json:"customer_notes,omitempty" gorm:"type:text"`

	// ResponseTimeHours is the whole number of hours between the invitation
	// and the submission, rounded up. Zero for uninvited quotes.
	ResponseTimeHours int `json:"response_time_hours"`

	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// String returns the string representation of the quotation status
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s QuoteStatus) IsTerminal() bool {
	return s != QuoteStatusPending
}

// ParseQuoteStatus converts a string to a QuoteStatus type
func ParseQuoteStatus(str string) (QuoteStatus, error) {
	switch str {
	case string(QuoteStatusPending):
		return QuoteStatusPending, nil
	case string(QuoteStatusAccepted):
		return QuoteStatusAccepted, nil
	case string(QuoteStatusRejected):
		return QuoteStatusRejected, nil
	case string(QuoteStatusCancelled):
		return QuoteStatusCancelled, nil
	case string(QuoteStatusExpired):
		return QuoteStatusExpired, nil
	default:
		return "", fmt.Errorf("invalid quote status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for QuoteStatus
func (s *QuoteStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseQuoteStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Validate ensures that the quotation data is valid
func (q *Quotation) Validate() error {
	if q.JobID == "" {
		return fmt.Errorf("quotation job_id cannot be empty")
	}
	if q.ProviderID == "" {
		return fmt.Errorf("quotation provider_id cannot be empty")
	}
	if q.Price < 0 {
		return fmt.Errorf("quotation price cannot be negative")
	}
	return nil
}

// IsExpired reports whether the quote's validity window has elapsed.
func (q *Quotation) IsExpired(now time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// BeforeCreate is a GORM hook that runs before creating a new quotation
func (q *Quotation) BeforeCreate(_ *gorm.DB) error {
	assignID(&q.ID)
	if q.Status == "" {
		q.Status = QuoteStatusPending
	}
	return q.Validate()
}
