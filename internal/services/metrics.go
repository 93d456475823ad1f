// Package services implements the orchestrator's business logic on top of
// the repositories: the matching pipeline, the invitation ledger, the
// quotation state machine, and the metrics aggregator.
package services

import (
	"context"

	"github.com/handyhub/quotehub/internal/db/models"
	"github.com/handyhub/quotehub/internal/db/repos"
)

// Metrics tracks per-provider invite and quote activity for future ranking
// improvements.
type Metrics struct {
	repo *repos.MetricsRepository
}

// NewMetricsService creates a new instance of the Metrics service
func NewMetricsService(repo *repos.MetricsRepository) *Metrics {
	return &Metrics{repo: repo}
}

// RecordInvite increments the provider's invite counter
func (s *Metrics) RecordInvite(ctx context.Context, providerID string) error {
	return s.repo.Increment(ctx, providerID, repos.MetricTotalInvites)
}

// RecordResponse increments the provider's response counter
func (s *Metrics) RecordResponse(ctx context.Context, providerID string) error {
	return s.repo.Increment(ctx, providerID, repos.MetricTotalResponses)
}

// RecordAccept increments the provider's accepted-quote counter
func (s *Metrics) RecordAccept(ctx context.Context, providerID string) error {
	return s.repo.Increment(ctx, providerID, repos.MetricAcceptedQuotes)
}

// RecordReject increments the provider's rejected-quote counter
func (s *Metrics) RecordReject(ctx context.Context, providerID string) error {
	return s.repo.Increment(ctx, providerID, repos.MetricRejectedQuotes)
}

// GetByProvider retrieves a provider's metrics, zero-valued when the
// provider has no recorded activity.
func (s *Metrics) GetByProvider(ctx context.Context, providerID string) (*models.ProviderMetrics, error) {
	return s.repo.GetByProvider(ctx, providerID)
}
