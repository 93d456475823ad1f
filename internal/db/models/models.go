// Package models defines the persistent aggregates owned by the orchestrator:
// eligibility criteria, invitations, quotations, and provider metrics.
//
// Job and provider records are owned by other services. Only foreign-key
// references and display snapshots (email, title) captured at write time are
// stored here; staleness of those snapshots is acceptable.
package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID generates a uuid primary key for a record about to be created.
func newID() string {
	return uuid.NewString()
}

// assignID sets a generated uuid on tx-created records that do not have one.
func assignID(id *string) {
	if *id == "" {
		*id = newID()
	}
}

// Migrate runs auto-migration for all orchestrator models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&EligibilityCriteria{},
		&Invitation{},
		&Quotation{},
		&ProviderMetrics{},
	)
}
