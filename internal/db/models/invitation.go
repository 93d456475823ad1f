package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for the invitation model
const (
	// InviteStatusField is the field name for invitation status
	InviteStatusField = "status"
)

// InviteStatus represents the current state of an invitation
type InviteStatus string

// Invitation status constants
const (
	// InviteStatusInvited indicates the invitation is open for a response
	InviteStatusInvited InviteStatus = "INVITED"
	// InviteStatusResponded indicates a quote was submitted against the invitation
	InviteStatusResponded InviteStatus = "RESPONDED"
	// InviteStatusExpired indicates the response window elapsed with no quote
	InviteStatusExpired InviteStatus = "EXPIRED"
	// InviteStatusDeclined indicates the provider explicitly declined
	InviteStatusDeclined InviteStatus = "DECLINED"
)

// Invitation records that a provider was asked to quote on a job. The
// (job_id, provider_id) pair is unique, which makes invitation creation
// idempotent under redelivered job.created signals.
//
// Job title, location, and provider email are snapshots captured at
// invitation time so the record stays renderable if the owning services
// are unavailable later.
type Invitation struct {
	ID            string  `json:"id" gorm:"type:uuid;primaryKey"`
	JobID         string  `json:"job_id" gorm:"not null;uniqueIndex:idx_invitations_job_provider"`
	ProviderID    string  `json:"provider_id" gorm:"not null;uniqueIndex:idx_invitations_job_provider"`
	ProviderEmail string  `json:"provider_email"`
	CustomerID    string  `json:"customer_id"`
	JobTitle      string  `json:"job_title"`
	JobCategory   string  `json:"job_category" gorm:"index"`
	JobLocation   string  `json:"job_location"`
	DistanceKm    float64 `json:"distance_km"`

	Status      InviteStatus `json:"status" gorm:"not null;index;default:INVITED"`
	InvitedAt   time.Time    `json:"invited_at"`
	ExpiresAt   time.Time    `json:"expires_at" gorm:"index"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	QuoteID     *string      `json:"quote_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// String returns the string representation of the invitation status
func (s InviteStatus) String() string {
	return string(s)
}

// ParseInviteStatus converts a string to an InviteStatus type
func ParseInviteStatus(str string) (InviteStatus, error) {
	switch str {
	case string(InviteStatusInvited):
		return InviteStatusInvited, nil
	case string(InviteStatusResponded):
		return InviteStatusResponded, nil
	case string(InviteStatusExpired):
		return InviteStatusExpired, nil
	case string(InviteStatusDeclined):
		return InviteStatusDeclined, nil
	default:
		return "", fmt.Errorf("invalid invitation status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for InviteStatus
func (s *InviteStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseInviteStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// IsExpired reports whether the response window has elapsed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Validate ensures that the invitation data is valid
func (i *Invitation) Validate() error {
	if i.JobID == "" {
		return fmt.Errorf("invitation job_id cannot be empty")
	}
	if i.ProviderID == "" {
		return fmt.Errorf("invitation provider_id cannot be empty")
	}
	if i.ExpiresAt.IsZero() {
		return fmt.Errorf("invitation expires_at cannot be zero")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new invitation
func (i *Invitation) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	if i.Status == "" {
		i.Status = InviteStatusInvited
	}
	if i.InvitedAt.IsZero() {
		i.InvitedAt = time.Now().UTC()
	}
	return i.Validate()
}
