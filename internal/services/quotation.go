package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/handyhub/quotehub/internal/db"
	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/db/repos"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/types"
)

// Quotation implements the quote lifecycle:
//
//	PENDING --accept--> ACCEPTED   (terminal)
//	PENDING --reject--> REJECTED   (terminal)
//	PENDING --cancel--> CANCELLED  (terminal, provider-initiated)
//	PENDING --expire--> EXPIRED    (terminal, validity window elapsed)
//
// Accepting one quote atomically rejects every other pending quote for the
// same job, so at most one quote per job is ever ACCEPTED.
type Quotation struct {
	repo        *repos.QuotationRepository
	invitations *Invitation
	metrics     *Metrics
	publisher   events.Publisher
}

// NewQuotationService creates a new instance of the Quotation service
func NewQuotationService(repo *repos.QuotationRepository, invitations *Invitation, metrics *Metrics, publisher events.Publisher) *Quotation {
	return &Quotation{
		repo:        repo,
		invitations: invitations,
		metrics:     metrics,
		publisher:   publisher,
	}
}

// SubmitParams carries a provider's quote submission.
type SubmitParams struct {
	JobID         string     `json:"job_id"`
	InviteID      *string    `json:"invite_id,omitempty"`
	Price         float64    `json:"price"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	Message       string     `json:"message,omitempty"`
	ProposedStart *time.Time `json:"proposed_start,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
}

// JobQuotesSummary aggregates the reviewable quotes for a job.
type JobQuotesSummary struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Accepted     int     `json:"accepted"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

// JobQuotes is the customer-facing view of a job's quotations.
type JobQuotes struct {
	JobID      string             `json:"job_id"`
	Quotations []models.Quotation `json:"quotations"`
	Summary    JobQuotesSummary   `json:"summary"`
}

// Submit records a provider's quote. When the job used the invitation flow
// the supplied invitation must still be INVITED and unexpired; submission
// marks it RESPONDED and captures the response time.
func (s *Quotation) Submit(ctx context.Context, params *SubmitParams, providerID, providerEmail string) (*models.Quotation, error) {
	if params.JobID == "" {
		return nil, types.NewError(types.KindBadRequest, "job_id is required")
	}
	if params.Price < 0 {
		return nil, types.NewError(types.KindBadRequest, "price cannot be negative")
	}

	if _, err := s.repo.GetActiveForJobProvider(ctx, params.JobID, providerID); err == nil {
		return nil, types.NewError(types.KindConflict, "you have already submitted a quote for this job")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	quote := &models.Quotation{
		JobID:         params.JobID,
		ProviderID:    providerID,
		ProviderEmail: providerEmail,
		InviteID:      params.InviteID,
		Price:         params.Price,
		EstimatedTime: params.EstimatedTime,
		Message:       params.Message,
		ProposedStart: params.ProposedStart,
		ValidUntil:    params.ValidUntil,
		Status:        models.QuoteStatusPending,
	}

	var invitation *models.Invitation
	if params.InviteID != nil {
		var err error
		invitation, err = s.invitations.GetForResponse(ctx, *params.InviteID, now)
		if err != nil {
			return nil, err
		}
		if invitation.ProviderID != providerID {
			return nil, types.NewError(types.KindForbidden, "you can only respond to your own invitations")
		}
		if invitation.JobID != params.JobID {
			return nil, types.NewError(types.KindBadRequest, "invitation does not belong to this job")
		}
		quote.CustomerID = invitation.CustomerID
		quote.ResponseTimeHours = responseTimeHours(invitation.InvitedAt, now)
	}

	if err := s.repo.Create(ctx, quote); err != nil {
		if db.IsDuplicateKeyError(err) {
			// Lost the insert race against our own duplicate submission.
			return nil, types.NewError(types.KindConflict, "you have already submitted a quote for this job")
		}
		return nil, err
	}

	if invitation != nil {
		if _, err := s.invitations.MarkResponded(ctx, invitation.ID, quote.ID); err != nil {
			logger.Errorf("Failed to mark invitation %s responded: %v", invitation.ID, err)
		}
	}

	s.publish(ctx, events.SignalQuoteSubmitted, &events.QuoteSubmittedPayload{
		QuoteID:     quote.ID,
		JobID:       quote.JobID,
		ProviderID:  quote.ProviderID,
		Price:       quote.Price,
		SubmittedAt: quote.CreatedAt,
	})
	return quote, nil
}

// Accept transitions the quote to ACCEPTED and rejects every other pending
// quote for the job in one atomic unit. Exactly one caller can win this
// transition; racing callers observe Conflict.
func (s *Quotation) Accept(ctx context.Context, quoteID, customerID, notes string) (*models.Quotation, error) {
	quote, err := s.getByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, types.NewErrorf(types.KindInvalidState, "only pending quotations can be accepted, this one is %s", quote.Status)
	}

	now := time.Now().UTC()
	if quote.IsExpired(now) {
		return nil, types.NewError(types.KindBadRequest, "this quotation has expired")
	}

	accepted, err := s.repo.Accept(ctx, quote.ID, quote.JobID, notes, now)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindConflict, "quotation was decided concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.SignalQuoteAccepted, &events.QuoteAcceptedPayload{
		QuoteID:    accepted.ID,
		JobID:      accepted.JobID,
		ProviderID: accepted.ProviderID,
		CustomerID: customerID,
		Price:      accepted.Price,
		AcceptedAt: now,
	})

	// Metrics count the accepted provider only. Siblings rejected by this
	// acceptance were superseded, not explicitly rejected.
	if err := s.metrics.RecordAccept(ctx, accepted.ProviderID); err != nil {
		logger.Errorf("Failed to record accept metric for provider %s: %v", accepted.ProviderID, err)
	}
	return accepted, nil
}

// Reject transitions a single pending quote to REJECTED.
func (s *Quotation) Reject(ctx context.Context, quoteID, customerID, notes string) (*models.Quotation, error) {
	quote, err := s.getByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, types.NewErrorf(types.KindInvalidState, "only pending quotations can be rejected, this one is %s", quote.Status)
	}

	now := time.Now().UTC()
	rejected, err := s.repo.Reject(ctx, quote.ID, notes, now)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindConflict, "quotation was decided concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.SignalQuoteRejected, &events.QuoteRejectedPayload{
		QuoteID:    rejected.ID,
		JobID:      rejected.JobID,
		ProviderID: rejected.ProviderID,
		CustomerID: customerID,
		RejectedAt: now,
	})

	if err := s.metrics.RecordReject(ctx, rejected.ProviderID); err != nil {
		logger.Errorf("Failed to record reject metric for provider %s: %v", rejected.ProviderID, err)
	}
	return rejected, nil
}

// Cancel lets the owning provider withdraw a still-pending quote.
func (s *Quotation) Cancel(ctx context.Context, quoteID, providerID string) (*models.Quotation, error) {
	quote, err := s.getByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.ProviderID != providerID {
		return nil, types.NewError(types.KindForbidden, "you can only cancel your own quotations")
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, types.NewErrorf(types.KindInvalidState, "only pending quotations can be cancelled, this one is %s", quote.Status)
	}

	now := time.Now().UTC()
	cancelled, err := s.repo.Cancel(ctx, quote.ID, now)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindConflict, "quotation was decided concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.SignalQuoteCancelled, &events.QuoteCancelledPayload{
		QuoteID:     cancelled.ID,
		JobID:       cancelled.JobID,
		ProviderID:  cancelled.ProviderID,
		CancelledAt: now,
	})
	return cancelled, nil
}

// Update applies provider edits to a still-pending quote.
func (s *Quotation) Update(ctx context.Context, quoteID, providerID string, params *SubmitParams) (*models.Quotation, error) {
	quote, err := s.getByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.ProviderID != providerID {
		return nil, types.NewError(types.KindForbidden, "you can only update your own quotations")
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, types.NewErrorf(types.KindInvalidState, "only pending quotations can be updated, this one is %s", quote.Status)
	}
	if params.Price < 0 {
		return nil, types.NewError(types.KindBadRequest, "price cannot be negative")
	}

	updates := map[string]interface{}{
		"price":          params.Price,
		"estimated_time": params.EstimatedTime,
		"message":        params.Message,
	}
	if params.ProposedStart != nil {
		updates["proposed_start"] = *params.ProposedStart
	}
	if params.ValidUntil != nil {
		updates["valid_until"] = *params.ValidUntil
	}

	updated, err := s.repo.UpdatePending(ctx, quote.ID, updates)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindConflict, "quotation was decided concurrently")
		}
		return nil, err
	}
	return updated, nil
}

// Remove deletes a provider's own non-accepted quote. Administrative
// removal only; normal lifecycle ends in a terminal status instead.
func (s *Quotation) Remove(ctx context.Context, quoteID, providerID string) error {
	quote, err := s.getByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote.ProviderID != providerID {
		return types.NewError(types.KindForbidden, "you can only delete your own quotations")
	}
	if quote.Status == models.QuoteStatusAccepted {
		return types.NewError(types.KindForbidden, "accepted quotations cannot be deleted")
	}
	return s.repo.Delete(ctx, quote.ID)
}

// GetByID retrieves a quotation by ID.
func (s *Quotation) GetByID(ctx context.Context, quoteID string) (*models.Quotation, error) {
	return s.getByID(ctx, quoteID)
}

// ListByProvider retrieves a provider's quotes, newest first, optionally
// filtered by status.
func (s *Quotation) ListByProvider(ctx context.Context, providerID string, status *models.QuoteStatus) ([]models.Quotation, error) {
	return s.repo.ListByProvider(ctx, providerID, status)
}

// FindByJob returns the customer-facing view of a job's quotes: accepted
// first, then ascending price, then newest first, with a price summary.
func (s *Quotation) FindByJob(ctx context.Context, jobID string) (*JobQuotes, error) {
	quotes, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &JobQuotes{JobID: jobID, Quotations: quotes}
	view.Summary.Total = len(quotes)
	var sum float64
	for i, quote := range quotes {
		sum += quote.Price
		switch quote.Status {
		case models.QuoteStatusPending:
			view.Summary.Pending++
		case models.QuoteStatusAccepted:
			view.Summary.Accepted++
		}
		if i == 0 || quote.Price < view.Summary.MinPrice {
			view.Summary.MinPrice = quote.Price
		}
		if quote.Price > view.Summary.MaxPrice {
			view.Summary.MaxPrice = quote.Price
		}
	}
	if len(quotes) > 0 {
		view.Summary.AveragePrice = sum / float64(len(quotes))
	}
	return view, nil
}

// ExpireSweep transitions every pending quote whose validity window has
// elapsed to EXPIRED and returns the count for observability.
func (s *Quotation) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.ExpireSweep(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Infof("Expired %d stale quotations", count)
	}
	return count, nil
}

// CancelAllForJob cancels every pending quote for an externally cancelled
// job, publishing one quote.cancelled signal per affected quote so each
// provider is notified individually.
func (s *Quotation) CancelAllForJob(ctx context.Context, jobID string) (int, error) {
	now := time.Now().UTC()
	cancelled, err := s.repo.CancelAllForJob(ctx, jobID, now)
	if err != nil {
		return 0, err
	}

	for _, quote := range cancelled {
		s.publish(ctx, events.SignalQuoteCancelled, &events.QuoteCancelledPayload{
			QuoteID:     quote.ID,
			JobID:       quote.JobID,
			ProviderID:  quote.ProviderID,
			CancelledAt: now,
		})
	}
	return len(cancelled), nil
}

func (s *Quotation) getByID(ctx context.Context, quoteID string) (*models.Quotation, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.KindNotFound, "quotation not found")
		}
		return nil, err
	}
	return quote, nil
}

// responseTimeHours is the whole number of hours between the invitation and
// the submission, rounded up.
func responseTimeHours(invitedAt, now time.Time) int {
	hours := now.Sub(invitedAt).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours))
}

func (s *Quotation) publish(ctx context.Context, signal events.Signal, payload interface{}) {
	if err := s.publisher.Publish(ctx, signal, payload); err != nil {
		// Committed state stands; publishing is best-effort with external
		// reconciliation expected.
		logger.ErrorWithFields("Failed to publish signal", map[string]interface{}{
			"signal": string(signal),
			"error":  err.Error(),
		})
	}
}
