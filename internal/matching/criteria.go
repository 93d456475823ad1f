// Package matching derives eligibility criteria from job attributes and
// selects candidate providers with a bounding-box geo filter.
package matching

import (
	"time"

	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/types"
)

// Policy holds the matching parameters applied to a class of jobs. The
// values are tuning knobs, kept in one table rather than spread across call
// sites.
type Policy struct {
	RadiusKm           float64
	InviteExpiresHours int
	MaxProviders       int
	MinRating          float64
}

// policyTable maps the emergency flag to the matching policy. Emergency
// jobs trade reach for speed: a tighter radius, a shorter response window,
// and fewer invitees.
var policyTable = map[bool]Policy{
	true:  {RadiusKm: 5, InviteExpiresHours: 2, MaxProviders: 5, MinRating: 0},
	false: {RadiusKm: 10, InviteExpiresHours: 24, MaxProviders: 10, MinRating: 0},
}

// PolicyFor returns the matching policy for a job's emergency class.
func PolicyFor(emergency bool) Policy {
	return policyTable[emergency]
}

// BuildCriteria derives the immutable eligibility criteria for a job from
// its job.created signal. Jobs without a resolvable location are rejected
// before any invitation work starts.
func BuildCriteria(job *events.JobCreatedPayload) (*models.EligibilityCriteria, error) {
	if job.JobID == "" {
		return nil, types.NewError(types.KindBadRequest, "job id is required for matching")
	}
	if job.LocationLat == 0 && job.LocationLng == 0 {
		return nil, types.NewError(types.KindBadRequest, "job has no resolvable location")
	}
	if job.Category == "" {
		return nil, types.NewError(types.KindBadRequest, "job category is required for matching")
	}

	policy := PolicyFor(job.Emergency)

	criteria := &models.EligibilityCriteria{
		JobID:            job.JobID,
		RequiredCategory: job.Category,
		MaxDistanceKm:    policy.RadiusKm,
		MaxProviders:     policy.MaxProviders,
		InviteExpiresHrs: policy.InviteExpiresHours,
		MinRating:        policy.MinRating,
		JobLatitude:      job.LocationLat,
		JobLongitude:     job.LocationLng,
		JobAddress:       job.Location,
		RequiresTools:    job.RequiresTools,
		EcoFriendly:      job.EcoFriendlyOnly,
		EmergencyJob:     job.Emergency,
		CreatedAt:        time.Now().UTC(),
	}
	if job.Deadline != nil {
		deadline := *job.Deadline
		criteria.Deadline = &deadline
	}
	// A caller-provided radius narrows the search but never widens it past
	// the policy cap.
	if job.MaxRadius > 0 && job.MaxRadius < policy.RadiusKm {
		criteria.MaxDistanceKm = job.MaxRadius
	}
	return criteria, nil
}
