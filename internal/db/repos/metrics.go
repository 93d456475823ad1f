package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/handyhub/quotehub/internal/db/models"
)

// Counter columns accepted by MetricsRepository.Increment.
const (
	MetricTotalInvites   = "total_invites"
	MetricTotalResponses = "total_responses"
	MetricAcceptedQuotes = "accepted_quotes"
	MetricRejectedQuotes = "rejected_quotes"
)

// MetricsRepository handles database operations for provider metrics
type MetricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository creates a new instance of MetricsRepository
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// GetByProvider retrieves the metrics row for a provider. A provider with no
// recorded activity yields a zero-valued row rather than an error.
func (r *MetricsRepository) GetByProvider(ctx context.Context, providerID string) (*models.ProviderMetrics, error) {
	var metrics models.ProviderMetrics
	err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&metrics).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ProviderMetrics{ProviderID: providerID}, nil
		}
		return nil, err
	}
	return &metrics, nil
}

// Increment upserts the provider's metrics row, adds one to the named
// counter, and recomputes both derived rates inside the same transaction so
// the rates can never go stale relative to the counters.
func (r *MetricsRepository) Increment(ctx context.Context, providerID, counter string) error {
	seed := &models.ProviderMetrics{ProviderID: providerID}
	switch counter {
	case MetricTotalInvites:
		seed.TotalInvites = 1
	case MetricTotalResponses:
		seed.TotalResponses = 1
	case MetricAcceptedQuotes:
		seed.AcceptedQuotes = 1
	case MetricRejectedQuotes:
		seed.RejectedQuotes = 1
	default:
		return fmt.Errorf("unknown metrics counter: %s", counter)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				counter: gorm.Expr(counter + " + 1"),
			}),
		}).Create(seed)
		if result.Error != nil {
			return result.Error
		}

		return tx.Exec(
			`UPDATE provider_metrics SET
				response_rate = CASE WHEN total_invites > 0
					THEN total_responses * 100.0 / total_invites ELSE 0 END,
				success_rate = CASE WHEN total_responses > 0
					THEN accepted_quotes * 100.0 / total_responses ELSE 0 END
			 WHERE provider_id = ?`, providerID).Error
	})
}
