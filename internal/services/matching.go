package services

import (
	"context"
	"time"

	"github.com/handyhub/quotehub/internal/db/repos"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/matching"
	"github.com/handyhub/quotehub/internal/types"
)

// Matching orchestrates the reaction to job lifecycle signals: derive the
// eligibility criteria, find nearby providers, invite them, and announce the
// match result. It implements events.JobSignalHandler.
type Matching struct {
	criteria    *repos.CriteriaRepository
	matcher     *matching.Matcher
	invitations *Invitation
	quotations  *Quotation
	publisher   events.Publisher
}

// NewMatchingService creates a new instance of the Matching service
func NewMatchingService(criteria *repos.CriteriaRepository, matcher *matching.Matcher, invitations *Invitation, quotations *Quotation, publisher events.Publisher) *Matching {
	return &Matching{
		criteria:    criteria,
		matcher:     matcher,
		invitations: invitations,
		quotations:  quotations,
		publisher:   publisher,
	}
}

// HandleJobCreated runs the full matching pipeline for a new job. The
// pipeline is idempotent under redelivery: criteria are created once per
// job and invitation inserts skip already-invited providers.
func (s *Matching) HandleJobCreated(ctx context.Context, job *events.JobCreatedPayload) error {
	criteria, err := matching.BuildCriteria(job)
	if err != nil {
		if types.KindOf(err) == types.KindBadRequest {
			// Malformed payload. Log and drop, a redelivery would fail the
			// same way.
			logger.Errorf("Dropping job.created for job %s: %v", job.JobID, err)
			return nil
		}
		return err
	}

	criteria, err = s.criteria.CreateOnce(ctx, criteria)
	if err != nil {
		return err
	}

	candidates, err := s.matcher.FindEligibleProviders(ctx, criteria)
	if err != nil {
		return err
	}

	created, err := s.invitations.CreateInvitations(ctx, job, criteria, candidates)
	if err != nil {
		return err
	}

	matched := make([]events.MatchedProvider, 0, len(created))
	for _, inv := range created {
		matched = append(matched, events.MatchedProvider{
			ProviderID:             inv.ProviderID,
			DistanceKm:             inv.DistanceKm,
			EstimatedResponseHours: EstimateResponseHours(criteria.InviteExpiresHrs),
		})
	}

	// Published even with zero matches so the job owner learns nobody was
	// in range.
	payload := &events.ProvidersMatchedPayload{
		JobID:            job.JobID,
		MatchedProviders: matched,
		TotalInvitesSent: len(created),
		SearchRadius:     criteria.MaxDistanceKm,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.SignalProvidersMatched, payload); err != nil {
		logger.Errorf("Failed to publish providers.matched for job %s: %v", job.JobID, err)
	}

	logger.InfoWithFields("Matched providers for job", map[string]interface{}{
		"job_id":     job.JobID,
		"candidates": len(candidates),
		"invited":    len(created),
		"radius_km":  criteria.MaxDistanceKm,
	})
	return nil
}

// HandleJobCancelled cancels every pending quote for the job so providers
// are not left waiting on a decision that will never come.
func (s *Matching) HandleJobCancelled(ctx context.Context, job *events.JobCancelledPayload) error {
	count, err := s.quotations.CancelAllForJob(ctx, job.JobID)
	if err != nil {
		return err
	}
	logger.Infof("Cancelled %d pending quotations for cancelled job %s", count, job.JobID)
	return nil
}

// HandleJobUpdated is advisory. Criteria are immutable after creation, so
// updates are logged for audit without re-running the match.
func (s *Matching) HandleJobUpdated(ctx context.Context, job *events.JobUpdatedPayload) error {
	logger.InfoWithFields("Job updated after matching, criteria unchanged", map[string]interface{}{
		"job_id":     job.JobID,
		"updated_at": job.UpdatedAt,
	})
	return nil
}
