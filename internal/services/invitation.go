package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/db/repos"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/matching"
	"github.com/handyhub/quotehub/internal/types"
)

// Invitation manages the per-provider invitation ledger for a job.
type Invitation struct {
	repo      *repos.InvitationRepository
	metrics   *Metrics
	publisher events.Publisher
}

// NewInvitationService creates a new instance of the Invitation service
func NewInvitationService(repo *repos.InvitationRepository, metrics *Metrics, publisher events.Publisher) *Invitation {
	return &Invitation{
		repo:      repo,
		metrics:   metrics,
		publisher: publisher,
	}
}

// JobInvitationStats summarizes a job's invitation ledger.
type JobInvitationStats struct {
	TotalInvited      int     `json:"total_invited"`
	Responded         int     `json:"responded"`
	Pending           int     `json:"pending"`
	Expired           int     `json:"expired"`
	AverageDistanceKm float64 `json:"average_distance_km"`
}

// CreateInvitations creates INVITED records for each candidate and publishes
// one invitation.sent signal per record actually created. Candidates that
// already hold an invitation for the job are skipped, which makes the
// operation idempotent under redelivered job.created signals.
func (s *Invitation) CreateInvitations(ctx context.Context, job *events.JobCreatedPayload, criteria *models.EligibilityCriteria, candidates []matching.CandidateProvider) ([]*models.Invitation, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(criteria.InviteExpiresHrs) * time.Hour)

	invitations := make([]*models.Invitation, 0, len(candidates))
	for _, candidate := range candidates {
		invitations = append(invitations, &models.Invitation{
			JobID:         job.JobID,
			ProviderID:    candidate.ID,
			ProviderEmail: candidate.Email,
			CustomerID:    job.CustomerID,
			JobTitle:      job.Title,
			JobCategory:   job.Category,
			JobLocation:   job.Location,
			DistanceKm:    candidate.DistanceKm,
			InvitedAt:     now,
			ExpiresAt:     expiresAt,
		})
	}

	created, err := s.repo.CreateBatch(ctx, invitations)
	if err != nil {
		return nil, err
	}

	estimate := EstimateResponseHours(criteria.InviteExpiresHrs)
	for _, invitation := range created {
		if err := s.metrics.RecordInvite(ctx, invitation.ProviderID); err != nil {
			logger.Errorf("Failed to record invite metric for provider %s: %v", invitation.ProviderID, err)
		}
		s.publish(ctx, events.SignalInvitationSent, &events.InvitationSentPayload{
			InvitationID:           invitation.ID,
			JobID:                  invitation.JobID,
			ProviderID:             invitation.ProviderID,
			CustomerID:             invitation.CustomerID,
			DistanceKm:             invitation.DistanceKm,
			EstimatedResponseHours: estimate,
			InvitedAt:              invitation.InvitedAt,
			ExpiresAt:              invitation.ExpiresAt,
		})
	}
	return created, nil
}

// GetForResponse loads an invitation that a provider wants to answer. A
// stale invitation is expired on read and reported as invalid: a late quote
// must never get in through an elapsed window.
func (s *Invitation) GetForResponse(ctx context.Context, inviteID string, now time.Time) (*models.Invitation, error) {
	invitation, err := s.repo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.KindNotFound, "invitation not found")
		}
		return nil, err
	}

	if invitation.Status == models.InviteStatusInvited && invitation.IsExpired(now) {
		if err := s.repo.Expire(ctx, invitation.ID); err != nil && !errors.Is(err, repos.ErrStatusChanged) {
			return nil, err
		}
		return nil, types.NewError(types.KindBadRequest, "invitation has expired")
	}
	if invitation.Status != models.InviteStatusInvited {
		return nil, types.NewErrorf(types.KindInvalidState, "invitation is %s, not open for a response", invitation.Status)
	}
	return invitation, nil
}

// MarkResponded transitions the invitation to RESPONDED against the quote it
// was answered with and publishes the invitation.response signal.
func (s *Invitation) MarkResponded(ctx context.Context, inviteID, quoteID string) (*models.Invitation, error) {
	now := time.Now().UTC()
	invitation, err := s.repo.MarkResponded(ctx, inviteID, quoteID, now)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindInvalidState, "invitation is no longer open for a response")
		}
		return nil, err
	}

	if err := s.metrics.RecordResponse(ctx, invitation.ProviderID); err != nil {
		logger.Errorf("Failed to record response metric for provider %s: %v", invitation.ProviderID, err)
	}
	s.publish(ctx, events.SignalInvitationResponse, &events.InvitationResponsePayload{
		InvitationID: invitation.ID,
		JobID:        invitation.JobID,
		ProviderID:   invitation.ProviderID,
		Response:     events.InvitationResponseAccepted,
		RespondedAt:  now,
		QuoteID:      quoteID,
	})
	return invitation, nil
}

// Decline records that the provider will not quote on the job.
func (s *Invitation) Decline(ctx context.Context, inviteID, providerID string) (*models.Invitation, error) {
	now := time.Now().UTC()
	invitation, err := s.GetForResponse(ctx, inviteID, now)
	if err != nil {
		return nil, err
	}
	if invitation.ProviderID != providerID {
		return nil, types.NewError(types.KindForbidden, "you can only decline your own invitations")
	}

	declined, err := s.repo.MarkDeclined(ctx, inviteID, now)
	if err != nil {
		if errors.Is(err, repos.ErrStatusChanged) {
			return nil, types.NewError(types.KindConflict, "invitation was answered concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.SignalInvitationResponse, &events.InvitationResponsePayload{
		InvitationID: declined.ID,
		JobID:        declined.JobID,
		ProviderID:   declined.ProviderID,
		Response:     events.InvitationResponseDeclined,
		RespondedAt:  now,
	})
	return declined, nil
}

// ListByProvider retrieves a provider's invitations, expiring stale ones on
// read so callers never see an INVITED record whose window has elapsed.
func (s *Invitation) ListByProvider(ctx context.Context, providerID string, status *models.InviteStatus) ([]models.Invitation, error) {
	invitations, err := s.repo.ListByProvider(ctx, providerID, status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range invitations {
		if invitations[i].Status != models.InviteStatusInvited || !invitations[i].IsExpired(now) {
			continue
		}
		if err := s.repo.Expire(ctx, invitations[i].ID); err != nil && !errors.Is(err, repos.ErrStatusChanged) {
			return nil, err
		}
		invitations[i].Status = models.InviteStatusExpired
	}
	return invitations, nil
}

// StatsForJob aggregates the invitation ledger for a job.
func (s *Invitation) StatsForJob(ctx context.Context, jobID string) (*JobInvitationStats, error) {
	invitations, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := &JobInvitationStats{TotalInvited: len(invitations)}
	var totalDistance float64
	for _, invitation := range invitations {
		totalDistance += invitation.DistanceKm
		switch {
		case invitation.Status == models.InviteStatusResponded:
			stats.Responded++
		case invitation.Status == models.InviteStatusExpired,
			invitation.Status == models.InviteStatusInvited && invitation.IsExpired(now):
			stats.Expired++
		case invitation.Status == models.InviteStatusInvited:
			stats.Pending++
		}
	}
	if len(invitations) > 0 {
		stats.AverageDistanceKm = totalDistance / float64(len(invitations))
	}
	return stats, nil
}

// ExpireSweep proactively expires every stale invitation and returns the
// number swept.
func (s *Invitation) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireSweep(ctx, now)
}

// EstimateResponseHours is a placeholder estimate of how quickly a provider
// responds: half the invitation window, at least one hour. It stands in
// until per-provider response measurements feed the estimate.
func EstimateResponseHours(inviteExpiresHours int) int {
	estimate := inviteExpiresHours / 2
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func (s *Invitation) publish(ctx context.Context, signal events.Signal, payload interface{}) {
	if err := s.publisher.Publish(ctx, signal, payload); err != nil {
		// State is the source of truth; a failed publish is logged and left
		// to external reconciliation.
		logger.ErrorWithFields("Failed to publish signal", map[string]interface{}{
			"signal": string(signal),
			"error":  err.Error(),
		})
	}
}
