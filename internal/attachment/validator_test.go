package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randdane/life-log/internal/domain"
)

func newTestValidator() *SniffValidator {
	return NewSniffValidator([]string{"image/jpeg", "image/png", "text/plain", "application/pdf"})
}

func TestSniffValidator_AllowedType(t *testing.T) {
	v := newTestValidator()

	got, err := v.Validate("image/png", []byte{0x89, 'P', 'N', 'G'}, "photo.png")

	assert.NoError(t, err)
	assert.Equal(t, "image/png", got)
}

func TestSniffValidator_CanonicalizesParameters(t *testing.T) {
	v := newTestValidator()

	got, err := v.Validate("text/plain; charset=utf-8", []byte("hello"), "notes.txt")

	assert.NoError(t, err)
	assert.Equal(t, "text/plain", got)
}

func TestSniffValidator_UnparseableType(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("not a media type", nil, "f")

	assert.True(t, domain.IsValidation(err))
}

func TestSniffValidator_TypeOutsideAllowList(t *testing.T) {
	v := newTestValidator()

	_, err := v.Validate("application/zip", []byte("PK"), "archive.zip")

	assert.True(t, domain.IsLimitExceeded(err))
	assert.Contains(t, err.Error(), "application/zip")
}

func TestSniffValidator_DeniedTypeEvenIfAllowed(t *testing.T) {
	v := NewSniffValidator([]string{"application/x-msdownload"})

	_, err := v.Validate("application/x-msdownload", []byte("data"), "setup.exe")

	assert.True(t, domain.IsLimitExceeded(err))
}

func TestSniffValidator_ExecutableMagic(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		head []byte
	}{
		{"pe", []byte("MZ\x90\x00")},
		{"elf", []byte{0x7f, 'E', 'L', 'F', 2, 1}},
		{"shebang", []byte("#!/bin/sh\n")},
		{"mach-o", []byte{0xfe, 0xed, 0xfa, 0xcf}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Declared type lies; the payload decides.
			_, err := v.Validate("text/plain", tt.head, "innocent.txt")
			assert.True(t, domain.IsLimitExceeded(err))
		})
	}
}

func TestSniffValidator_ShortHeadNotExecutable(t *testing.T) {
	v := newTestValidator()

	got, err := v.Validate("text/plain", []byte("M"), "m.txt")

	assert.NoError(t, err)
	assert.Equal(t, "text/plain", got)
}
