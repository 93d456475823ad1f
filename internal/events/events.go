// Package events defines the signals exchanged with the job registry and
// notification paths, and the transport used to carry them.
//
// The transport delivers at-least-once and orders signals only within a
// single job's stream. Every consumer here is idempotent and assumes
// nothing about cross-job ordering.
package events

import "time"

// Signal identifies a signal on the message transport. The name doubles as
// the transport channel.
type Signal string

// Signals consumed from the job registry.
const (
	// SignalJobCreated triggers the matching pipeline
	SignalJobCreated Signal = "job.created"
	// SignalJobCancelled cancels every pending quote for the job
	SignalJobCancelled Signal = "job.cancelled"
	// SignalJobUpdated is advisory only; no state mutation
	SignalJobUpdated Signal = "job.updated"
)

// Signals published by the orchestrator.
const (
	SignalInvitationSent     Signal = "invitation.sent"
	SignalInvitationResponse Signal = "invitation.response"
	SignalProvidersMatched   Signal = "providers.matched"
	SignalQuoteSubmitted     Signal = "quote.submitted"
	SignalQuoteAccepted      Signal = "quote.accepted"
	SignalQuoteRejected      Signal = "quote.rejected"
	SignalQuoteCancelled     Signal = "quote.cancelled"
)

// Invitation response values carried by SignalInvitationResponse.
const (
	InvitationResponseAccepted = "ACCEPTED"
	InvitationResponseDeclined = "DECLINED"
)

// JobCreatedPayload is the job projection carried by job.created. Only the
// fields needed for matching are read; the job registry stays the
// authoritative owner of the record.
type JobCreatedPayload struct {
	JobID           string     `json:"jobId"`
	CustomerID      string     `json:"customerId"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	BudgetMin       float64    `json:"budgetMin"`
	BudgetMax       float64    `json:"budgetMax"`
	Location        string     `json:"location"`
	LocationLat     float64    `json:"locationLat"`
	LocationLng     float64    `json:"locationLng"`
	MaxRadius       float64    `json:"maxRadius"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	RequiresTools   bool       `json:"requiresTools"`
	EcoFriendlyOnly bool       `json:"ecoFriendlyOnly"`
	Emergency       bool       `json:"emergency"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// JobCancelledPayload is carried by job.cancelled.
type JobCancelledPayload struct {
	JobID       string    `json:"jobId"`
	CustomerID  string    `json:"customerId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// JobUpdatedPayload is carried by job.updated. Advisory: the bridge logs it
// and keeps the hook for future rule changes.
type JobUpdatedPayload struct {
	JobID      string    `json:"jobId"`
	CustomerID string    `json:"customerId"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// InvitationSentPayload is published once per created invitation.
type InvitationSentPayload struct {
	InvitationID           string    `json:"invitationId"`
	JobID                  string    `json:"jobId"`
	ProviderID             string    `json:"providerId"`
	CustomerID             string    `json:"customerId"`
	DistanceKm             float64   `json:"distanceKm"`
	EstimatedResponseHours int       `json:"estimatedResponseHours"`
	InvitedAt              time.Time `json:"invitedAt"`
	ExpiresAt              time.Time `json:"expiresAt"`
}

// InvitationResponsePayload is published when an invitation is answered or
// declined.
type InvitationResponsePayload struct {
	InvitationID string    `json:"invitationId"`
	JobID        string    `json:"jobId"`
	ProviderID   string    `json:"providerId"`
	Response     string    `json:"response"`
	RespondedAt  time.Time `json:"respondedAt"`
	QuoteID      string    `json:"quoteId,omitempty"`
}

// MatchedProvider summarizes one invited provider inside providers.matched.
type MatchedProvider struct {
	ProviderID             string  `json:"providerId"`
	DistanceKm             float64 `json:"distanceKm"`
	EstimatedResponseHours int     `json:"estimatedResponseHours"`
}

// ProvidersMatchedPayload summarizes a completed match, including the
// zero-candidate case so the job owner learns no one was invited.
type ProvidersMatchedPayload struct {
	JobID            string            `json:"jobId"`
	MatchedProviders []MatchedProvider `json:"matchedProviders"`
	TotalInvitesSent int               `json:"totalInvitesSent"`
	SearchRadius     float64           `json:"searchRadius"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// QuoteSubmittedPayload is published after a quote is recorded.
type QuoteSubmittedPayload struct {
	QuoteID     string    `json:"quoteId"`
	JobID       string    `json:"jobId"`
	ProviderID  string    `json:"providerId"`
	Price       float64   `json:"price"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// QuoteAcceptedPayload is published after the accept transaction commits.
// The job registry consumes it to move the job to assigned.
type QuoteAcceptedPayload struct {
	QuoteID    string    `json:"quoteId"`
	JobID      string    `json:"jobId"`
	ProviderID string    `json:"providerId"`
	CustomerID string    `json:"customerId"`
	Price      float64   `json:"price"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// QuoteRejectedPayload is published after a single-quote rejection.
type QuoteRejectedPayload struct {
	QuoteID    string    `json:"quoteId"`
	JobID      string    `json:"jobId"`
	ProviderID string    `json:"providerId"`
	CustomerID string    `json:"customerId"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// QuoteCancelledPayload is published once per cancelled quote, including
// each quote swept by a job cancellation.
type QuoteCancelledPayload struct {
	QuoteID     string    `json:"quoteId"`
	JobID       string    `json:"jobId"`
	ProviderID  string    `json:"providerId"`
	CancelledAt time.Time `json:"cancelledAt"`
}
