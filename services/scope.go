package services

import "gorm.io/gorm"

// Scope partitions every read and write by tenant. It is always derived from the
// authenticated identity, never from request parameters.
type Scope struct {
	OwnerUID       string
	OrganizationID string
}

// Valid reports whether both halves of the scope are present
func (s Scope) Valid() bool {
	return s.OwnerUID != "" && s.OrganizationID != ""
}

// Apply restricts a query to the scope. An incomplete scope matches nothing.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if !s.Valid() {
		return db.Where("1 = 0")
	}
	return db.Where("owner_uid = ? AND organization_id = ?", s.OwnerUID, s.OrganizationID)
}
