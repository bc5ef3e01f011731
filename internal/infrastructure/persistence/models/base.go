package models

import (
	"time"

	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel holds the columns every tenant-owned aggregate table
// shares. Version backs the optimistic lock in the repositories' SaveWithLock.
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	Version   int        `gorm:"not null;default:1"`
}

// FromDomainTenantAggregateRoot copies the shared aggregate columns from root
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(root shared.TenantAggregateRoot) {
	m.ID = root.ID
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
	m.Version = root.Version
}

// PopulateTenantAggregateRoot copies the shared aggregate columns into root.
// Pending events are left untouched.
func (m *TenantAggregateModel) PopulateTenantAggregateRoot(root *shared.TenantAggregateRoot) {
	root.ID = m.ID
	root.TenantID = m.TenantID
	root.CreatedBy = m.CreatedBy
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
	root.Version = m.Version
}

// VariantColumn maps an optional variant onto its NOT NULL column value.
// uuid.Nil stands for "no variant" so that composite unique keys hold.
func VariantColumn(variantID *uuid.UUID) uuid.UUID {
	if variantID == nil {
		return uuid.Nil
	}
	return *variantID
}

// VariantFromColumn maps a stored variant column back to the optional domain value
func VariantFromColumn(variantID uuid.UUID) *uuid.UUID {
	if variantID == uuid.Nil {
		return nil
	}
	v := variantID
	return &v
}
