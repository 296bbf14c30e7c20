package domain

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// metadataMaxKeyLen bounds individual metadata key length regardless of the
// configured key-count and byte-size ceilings.
const metadataMaxKeyLen = 100

// Metadata is a bounded key/value map of JSON-representable values attached
// to an Event. It replaces the unconstrained dict shape with a value type
// that is schema-checked before any write.
type Metadata map[string]any

// Validate enforces key count, key length and serialized size bounds.
func (m Metadata) Validate(maxKeys, maxBytes int) error {
	if len(m) == 0 {
		return nil
	}
	if len(m) > maxKeys {
		return &ValidationError{Field: "metadata", Reason: fmt.Sprintf("at most %d keys allowed", maxKeys)}
	}
	for k := range m {
		if k == "" {
			return &ValidationError{Field: "metadata", Reason: "empty key"}
		}
		if utf8.RuneCountInString(k) > metadataMaxKeyLen {
			return &ValidationError{Field: "metadata", Reason: fmt.Sprintf("key %q exceeds %d characters", k, metadataMaxKeyLen)}
		}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return &ValidationError{Field: "metadata", Reason: "values must be JSON-representable"}
	}
	if len(raw) > maxBytes {
		return &ValidationError{Field: "metadata", Reason: fmt.Sprintf("serialized size %d exceeds %d bytes", len(raw), maxBytes)}
	}
	return nil
}
