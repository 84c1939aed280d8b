package types

import "github.com/google/uuid"

// AttributeFieldType is the kind of a single attribute-template field.
type AttributeFieldType string

const (
	AttributeFieldText           AttributeFieldType = "text"
	AttributeFieldMultipleChoice AttributeFieldType = "multiple_choice"
)

// AttributeField describes one field of an AttributeTemplate.
type AttributeField struct {
	Name     string
	Optional bool
	Type     AttributeFieldType
	Options  []string
}

// AttributeTemplate is a per-project schema for structured file attributes.
type AttributeTemplate struct {
	ID          uuid.UUID
	Name        string
	ProjectCode string
	Attributes  []AttributeField
}
