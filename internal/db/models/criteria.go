package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EligibilityCriteria captures the matching parameters derived from a job at
// the moment its job.created signal was processed. Created exactly once per
// job, immutable thereafter, and never deleted (kept for audit).
type EligibilityCriteria struct {
	ID               string  `json:"id" gorm:"type:uuid;primaryKey"`
	JobID            string  `json:"job_id" gorm:"not null;uniqueIndex"`
	RequiredCategory string  `json:"required_category" gorm:"not null"`
	MaxDistanceKm    float64 `json:"max_distance_km" gorm:"not null"`
	MaxProviders     int     `json:"max_providers_invited" gorm:"not null"`
	InviteExpiresHrs int     `json:"invite_expires_hours" gorm:"not null"`
	MinRating        float64 `json:"min_provider_rating"`

	JobLatitude  float64 `json:"job_latitude"`
	JobLongitude float64 `json:"job_longitude"`
	JobAddress   string  `json:"job_address"`

	Deadline      *time.Time `json:"deadline,omitempty"`
	RequiresTools bool       `json:"requires_tools"`
	EcoFriendly   bool       `json:"eco_friendly_only"`
	EmergencyJob  bool       `json:"emergency_job"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures that the criteria data is valid
func (c *EligibilityCriteria) Validate() error {
	if c.JobID == "" {
		return fmt.Errorf("criteria job_id cannot be empty")
	}
	if c.RequiredCategory == "" {
		return fmt.Errorf("criteria required_category cannot be empty")
	}
	if c.MaxDistanceKm <= 0 {
		return fmt.Errorf("criteria max_distance_km must be positive")
	}
	if c.MaxProviders <= 0 {
		return fmt.Errorf("criteria max_providers_invited must be positive")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating new criteria
func (c *EligibilityCriteria) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return c.Validate()
}
