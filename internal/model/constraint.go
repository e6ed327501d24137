package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidWeight is returned when a constraint weight is not strictly positive
	ErrInvalidWeight = errors.New("constraint weight must be positive")

	// ErrEmptyConstraint is returned when a constraint has neither value nor description
	ErrEmptyConstraint = errors.New("constraint has no value or description")
)

// ConstraintType classifies what kind of condition a constraint expresses
type ConstraintType string

const (
	ConstraintProperty     ConstraintType = "PROPERTY"     // Attribute of the entity ("is a conglomerate")
	ConstraintNamePattern  ConstraintType = "NAME_PATTERN" // Shape of the entity name ("starts with K")
	ConstraintEvent        ConstraintType = "EVENT"        // Something that happened to/with the entity
	ConstraintStatistic    ConstraintType = "STATISTIC"    // Numeric fact (count, size, year)
	ConstraintTemporal     ConstraintType = "TEMPORAL"     // Date or period
	ConstraintLocation     ConstraintType = "LOCATION"     // Place
	ConstraintComparison   ConstraintType = "COMPARISON"   // Relative statement ("largest", "more than")
	ConstraintExistence    ConstraintType = "EXISTENCE"    // Entity must exist / have existed
	ConstraintRelationship ConstraintType = "RELATIONSHIP" // Link to another entity
)

// AllConstraintTypes lists every known type in declaration order
var AllConstraintTypes = []ConstraintType{
	ConstraintProperty,
	ConstraintNamePattern,
	ConstraintEvent,
	ConstraintStatistic,
	ConstraintTemporal,
	ConstraintLocation,
	ConstraintComparison,
	ConstraintExistence,
	ConstraintRelationship,
}

// Valid reports whether t is one of the known constraint types
func (t ConstraintType) Valid() bool {
	for _, known := range AllConstraintTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseConstraintType normalizes free-form type names ("statistic", "name-pattern").
// Unknown names return "" so the caller can fall back to inference.
func ParseConstraintType(s string) ConstraintType {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	t := ConstraintType(norm)
	if t.Valid() {
		return t
	}
	return ""
}

// Constraint is one condition a correct answer must satisfy.
// Constraints are treated as immutable once extracted.
type Constraint struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description" yaml:"description"`
	Type        ConstraintType `json:"type" yaml:"type"`
	Value       string         `json:"value" yaml:"value"`
	Weight      float64        `json:"weight" yaml:"weight"`
}

// NewConstraint builds a constraint with a generated ID
func NewConstraint(t ConstraintType, description, value string, weight float64) Constraint {
	return Constraint{
		ID:          uuid.NewString(),
		Description: description,
		Type:        t,
		Value:       value,
		Weight:      weight,
	}
}

// Validate checks the programming contract of a constraint.
// Missing type or value is not an error; see Normalize.
func (c Constraint) Validate() error {
	if c.Weight <= 0 {
		return fmt.Errorf("constraint %q: %w (got %v)", c.label(), ErrInvalidWeight, c.Weight)
	}
	if strings.TrimSpace(c.Value) == "" && strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("constraint %q: %w", c.ID, ErrEmptyConstraint)
	}
	return nil
}

// Normalize fills generic defaults for a malformed constraint: a missing ID is
// generated, a missing value falls back to the description (and vice versa), and
// a missing or unknown type is inferred from the text.
func (c Constraint) Normalize() Constraint {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if strings.TrimSpace(c.Value) == "" {
		c.Value = c.Description
	}
	if strings.TrimSpace(c.Description) == "" {
		c.Description = c.Value
	}
	if !c.Type.Valid() {
		if parsed := ParseConstraintType(string(c.Type)); parsed != "" {
			c.Type = parsed
		} else {
			c.Type = ClassifyConstraintType(c.Description + " " + c.Value)
		}
	}
	return c
}

// Text returns the most specific text for searching: the value, else the description
func (c Constraint) Text() string {
	if v := strings.TrimSpace(c.Value); v != "" {
		return v
	}
	return strings.TrimSpace(c.Description)
}

func (c Constraint) label() string {
	if c.Description != "" {
		return c.Description
	}
	return c.ID
}

// WithValue returns a copy with a new value and description, keeping ID, type and weight
func (c Constraint) WithValue(value, description string) Constraint {
	c.Value = value
	c.Description = description
	return c
}
