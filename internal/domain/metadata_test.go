package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Validate_NilAndEmpty(t *testing.T) {
	var m Metadata
	assert.NoError(t, m.Validate(10, 1024))
	assert.NoError(t, Metadata{}.Validate(10, 1024))
}

func TestMetadata_Validate_WithinBounds(t *testing.T) {
	m := Metadata{"price": 4.5, "place": "corner shop", "count": 2}

	assert.NoError(t, m.Validate(10, 1024))
}

func TestMetadata_Validate_TooManyKeys(t *testing.T) {
	m := Metadata{"a": 1, "b": 2, "c": 3}

	err := m.Validate(2, 1024)

	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "at most 2 keys")
}

func TestMetadata_Validate_EmptyKey(t *testing.T) {
	m := Metadata{"": "value"}

	err := m.Validate(10, 1024)

	assert.True(t, IsValidation(err))
}

func TestMetadata_Validate_KeyTooLong(t *testing.T) {
	m := Metadata{strings.Repeat("k", 101): "value"}

	err := m.Validate(10, 1024)

	assert.True(t, IsValidation(err))
}

func TestMetadata_Validate_NonJSONValue(t *testing.T) {
	m := Metadata{"fn": func() {}}

	err := m.Validate(10, 1024)

	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "JSON")
}

func TestMetadata_Validate_SerializedSizeBound(t *testing.T) {
	m := Metadata{"blob": strings.Repeat("x", 64)}

	err := m.Validate(10, 32)

	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "exceeds 32 bytes")
}
