package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderMetrics aggregates a provider's invitation and quotation activity.
// Counters are incremented on every invite/response/accept/reject transition;
// the rates are recomputed in the same update so they never go stale relative
// to their counters.
type ProviderMetrics struct {
	ID         string `json:"id" gorm:"type:uuid;primaryKey"`
	ProviderID string `json:"provider_id" gorm:"not null;uniqueIndex"`

	TotalInvites   int `json:"total_invites" gorm:"not null;default:0"`
	TotalResponses int `json:"total_responses" gorm:"not null;default:0"`
	AcceptedQuotes int `json:"accepted_quotes" gorm:"not null;default:0"`
	RejectedQuotes int `json:"rejected_quotes" gorm:"not null;default:0"`

	// ResponseRate is total_responses / total_invites as a percentage.
	ResponseRate float64 `json:"response_rate" gorm:"not null;default:0"`
	// SuccessRate is accepted_quotes / total_responses as a percentage.
	SuccessRate float64 `json:"success_rate" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecomputeRates refreshes the derived rates from the current counters.
func (m *ProviderMetrics) RecomputeRates() {
	m.ResponseRate = 0
	m.SuccessRate = 0
	if m.TotalInvites > 0 {
		m.ResponseRate = float64(m.TotalResponses) / float64(m.TotalInvites) * 100
	}
	if m.TotalResponses > 0 {
		m.SuccessRate = float64(m.AcceptedQuotes) / float64(m.TotalResponses) * 100
	}
}

// BeforeCreate is a GORM hook that runs before creating a metrics row
func (m *ProviderMetrics) BeforeCreate(_ *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
