package domain

// Document is a read-only snapshot of one stored entity: the id plus the
// decoded JSON payload. Data is the single source of truth for all
// queryable and output content; the core never mutates it.
type Document struct {
	ID   string
	Data map[string]any
}

// Roles recognized when projecting documents.
const (
	// RoleClosedData grants visibility of closed-data documents.
	RoleClosedData = "ClosedDataReader"
	// RoleLicensedData grants access to non-open-licensed media fields.
	RoleLicensedData = "LicensedDataReader"
)

// License tiers carried in the projection context.
const (
	// LicenseTierOpen restricts media output to open-licensed entries.
	LicenseTierOpen = "open"
	// LicenseTierFull returns all media regardless of license.
	LicenseTierFull = "full"
)
