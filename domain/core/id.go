package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies one enrichment run.
	RunID ID
	// KinaseName identifies a kinase in a reference panel (e.g. "AAK1").
	KinaseName string
)

// NewRunID creates a time-ordered run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

func (id RunID) String() string { return ID(id).String() }
func (id RunID) IsEmpty() bool  { return ID(id).IsEmpty() }

func (k KinaseName) String() string { return string(k) }
func (k KinaseName) IsEmpty() bool  { return k == "" }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseKinaseName parses a string into KinaseName
func ParseKinaseName(s string) (KinaseName, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("kinase name cannot be empty")
	}
	return KinaseName(s), nil
}
