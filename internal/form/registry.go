package form

import (
	"github.com/OpenKinder/kinder/internal/apperr"
)

// FieldType enumerates the value types a form field can carry.
type FieldType string

const (
	FieldTypeText   FieldType = "TEXT"
	FieldTypeNumber FieldType = "NUMBER"
	FieldTypeDate   FieldType = "DATE"
	FieldTypeSelect FieldType = "SELECT"
	FieldTypeBool   FieldType = "BOOL"
)

// FieldDef describes one field of an entity schema.
type FieldDef struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"` // Allowed values for SELECT fields
}

// Registry holds entity field definitions used to validate submission values.
// It is constructed at startup and injected into the services that need it,
// rather than living as package-level mutable state.
type Registry struct {
	fields map[string][]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string][]FieldDef)}
}

// Register installs the field definitions for an entity type, replacing any
// previous definitions for the same type.
func (r *Registry) Register(entityType string, defs []FieldDef) {
	r.fields[entityType] = defs
}

// Fields returns the field definitions for an entity type.
func (r *Registry) Fields(entityType string) ([]FieldDef, bool) {
	defs, ok := r.fields[entityType]
	return defs, ok
}

// Validate checks submitted values against the entity's field definitions.
// Unknown entity types and unknown fields are accepted; only declared fields
// are enforced.
func (r *Registry) Validate(entityType string, values map[string]any) error {
	defs, ok := r.fields[entityType]
	if !ok {
		return nil
	}

	for _, def := range defs {
		value, present := values[def.Name]
		if !present || value == nil {
			if def.Required {
				return apperr.Validationf("missing required field %q", def.Name)
			}
			continue
		}

		if err := validateFieldValue(def, value); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldValue(def FieldDef, value any) error {
	switch def.Type {
	case FieldTypeText, FieldTypeDate:
		if _, ok := value.(string); !ok {
			return apperr.Validationf("field %q must be a string", def.Name)
		}
	case FieldTypeNumber:
		// JSON numbers decode as float64
		if _, ok := value.(float64); !ok {
			return apperr.Validationf("field %q must be a number", def.Name)
		}
	case FieldTypeBool:
		if _, ok := value.(bool); !ok {
			return apperr.Validationf("field %q must be a boolean", def.Name)
		}
	case FieldTypeSelect:
		s, ok := value.(string)
		if !ok {
			return apperr.Validationf("field %q must be a string", def.Name)
		}
		if len(def.Options) > 0 {
			for _, opt := range def.Options {
				if s == opt {
					return nil
				}
			}
			return apperr.Validationf("field %q value %q is not an allowed option", def.Name, s)
		}
	}
	return nil
}
