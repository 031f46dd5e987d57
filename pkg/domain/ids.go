// Package domain holds cross-module domain primitives: typed identifiers and
// the spending category enumeration. Keeping these in pkg avoids import
// cycles between the policy, ledger, and authorization modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "custos/pkg/domain-errors"
)

// Typed IDs prevent cross-type assignment at compile time. A DependentID can
// never be passed where a FamilyID is expected.
type (
	// DependentID identifies a dependent (child) account.
	DependentID uuid.UUID

	// FamilyID identifies a family; the guardian wallet hangs off the family.
	FamilyID uuid.UUID

	// RecordID identifies an immutable ledger or transaction record.
	RecordID uuid.UUID
)

// NewRecordID returns a fresh random record identifier.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

func (id DependentID) String() string { return uuid.UUID(id).String() }
func (id FamilyID) String() string    { return uuid.UUID(id).String() }
func (id RecordID) String() string    { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id DependentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id FamilyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseDependentID validates and returns a DependentID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseDependentID(s string) (DependentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DependentID{}, err
	}
	return DependentID(u), nil
}

// ParseFamilyID validates and returns a FamilyID.
func ParseFamilyID(s string) (FamilyID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return FamilyID{}, err
	}
	return FamilyID(u), nil
}

// ParseRecordID validates and returns a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
