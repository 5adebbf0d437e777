package revoke

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidIdentifier is returned for a secret id that is not a hyphenated
// 128-bit unique identifier.
var ErrInvalidIdentifier = errors.New("invalid secret identifier")

// canonicalLength is the length of the 8-4-4-4-12 hyphenated form.
const canonicalLength = 36

// SecretID is a validated secret identifier in canonical lower-case form.
type SecretID string

func (s SecretID) String() string {
	return string(s)
}

// ValidateSecretID accepts only the standard hyphenated hex form,
// case-insensitively. Braced, URN and unhyphenated forms are rejected.
func ValidateSecretID(raw string) (SecretID, error) {
	if len(raw) != canonicalLength {
		return "", fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidIdentifier, raw, len(raw), canonicalLength)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, raw, err)
	}
	return SecretID(id.String()), nil
}
