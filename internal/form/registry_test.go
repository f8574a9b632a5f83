package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenKinder/kinder/internal/apperr"
)

func testRegistry() *Registry {
	registry := NewRegistry()
	registry.Register("PURCHASE_REQUEST", []FieldDef{
		{Name: "title", Type: FieldTypeText, Required: true},
		{Name: "amount", Type: FieldTypeNumber, Required: true},
		{Name: "neededBy", Type: FieldTypeDate, Required: false},
		{Name: "urgency", Type: FieldTypeSelect, Required: false, Options: []string{"LOW", "HIGH"}},
		{Name: "recurring", Type: FieldTypeBool, Required: false},
	})
	return registry
}

func TestRegistryValidate(t *testing.T) {
	registry := testRegistry()

	t.Run("Valid Values", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{
			"title":     "whiteboard markers",
			"amount":    125.5,
			"urgency":   "LOW",
			"recurring": false,
		})
		assert.NoError(t, err)
	})

	t.Run("Missing Required Field", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{"title": "markers"})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "amount")
	})

	t.Run("Wrong Value Type", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{
			"title":  "markers",
			"amount": "not a number",
		})
		assert.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("Select Outside Options", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{
			"title":   "markers",
			"amount":  10.0,
			"urgency": "EXTREME",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an allowed option")
	})

	t.Run("Optional Field May Be Absent", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{
			"title":  "markers",
			"amount": 10.0,
		})
		assert.NoError(t, err)
	})

	t.Run("Unknown Entity Type Accepted", func(t *testing.T) {
		err := registry.Validate("SOMETHING_ELSE", map[string]any{"whatever": 1})
		assert.NoError(t, err)
	})

	t.Run("Unknown Fields Ignored", func(t *testing.T) {
		err := registry.Validate("PURCHASE_REQUEST", map[string]any{
			"title":  "markers",
			"amount": 10.0,
			"extra":  "ignored",
		})
		assert.NoError(t, err)
	})
}

func TestRegistryFields(t *testing.T) {
	registry := testRegistry()

	defs, ok := registry.Fields("PURCHASE_REQUEST")
	assert.True(t, ok)
	assert.Len(t, defs, 5)

	_, ok = registry.Fields("UNKNOWN")
	assert.False(t, ok)

	// Re-registering replaces the previous definitions
	registry.Register("PURCHASE_REQUEST", []FieldDef{{Name: "only", Type: FieldTypeText}})
	defs, ok = registry.Fields("PURCHASE_REQUEST")
	assert.True(t, ok)
	assert.Len(t, defs, 1)
}
