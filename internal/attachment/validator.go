package attachment

import (
	"bytes"
	"fmt"
	"mime"

	"github.com/randdane/life-log/internal/domain"
)

// ContentValidator decides whether an upload's content type is acceptable
// and returns the canonical type to record.
type ContentValidator interface {
	Validate(declaredType string, head []byte, filename string) (string, error)
}

// executableMagic holds file-header prefixes of executable formats that are
// denied regardless of the declared type.
var executableMagic = [][]byte{
	[]byte("MZ"),             // PE/DOS
	{0x7f, 'E', 'L', 'F'},    // ELF
	[]byte("#!"),             // script with interpreter line
	{0xfe, 0xed, 0xfa, 0xce}, // Mach-O 32-bit
	{0xfe, 0xed, 0xfa, 0xcf}, // Mach-O 64-bit
	{0xcf, 0xfa, 0xed, 0xfe}, // Mach-O little-endian
}

// deniedTypes are executable MIME types rejected even if someone were to put
// them on the allow-list.
var deniedTypes = map[string]struct{}{
	"application/x-msdownload":                      {},
	"application/x-executable":                      {},
	"application/x-elf":                             {},
	"application/x-sh":                              {},
	"application/x-mach-binary":                     {},
	"application/vnd.microsoft.portable-executable": {},
}

// SniffValidator checks the declared type against an allow-list and the
// first bytes of the payload against executable magic numbers.
type SniffValidator struct {
	allowed map[string]struct{}
}

// NewSniffValidator creates a validator for the given allow-list.
func NewSniffValidator(allowedTypes []string) *SniffValidator {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}
	return &SniffValidator{allowed: allowed}
}

// Validate returns the canonical media type, or a LimitExceededError when
// the type is outside the allow-list or the payload looks executable.
func (v *SniffValidator) Validate(declaredType string, head []byte, filename string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil {
		return "", &domain.ValidationError{Field: "content_type", Reason: fmt.Sprintf("unparseable media type %q", declaredType)}
	}

	if _, denied := deniedTypes[mediaType]; denied {
		return "", &domain.LimitExceededError{Kind: "content_type", Detail: mediaType}
	}
	if _, ok := v.allowed[mediaType]; !ok {
		return "", &domain.LimitExceededError{Kind: "content_type", Detail: mediaType}
	}

	for _, magic := range executableMagic {
		if bytes.HasPrefix(head, magic) {
			return "", &domain.LimitExceededError{
				Kind:   "content_type",
				Detail: fmt.Sprintf("executable content in %q", filename),
			}
		}
	}

	return mediaType, nil
}
