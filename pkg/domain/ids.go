// Package domain defines typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so a RegistrantID can never be
// passed where another identifier is expected. Parsing enforces the trust
// boundary invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/WenyeZhou51/rcssa-match-backend/pkg/domain-errors"
)

// RegistrantID identifies a registrant record.
type RegistrantID uuid.UUID

// NewRegistrantID returns a fresh random registrant ID.
func NewRegistrantID() RegistrantID {
	return RegistrantID(uuid.New())
}

// ParseRegistrantID parses and validates a registrant ID from its string form.
func ParseRegistrantID(s string) (RegistrantID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return RegistrantID{}, err
	}
	return RegistrantID(parsed), nil
}

func (id RegistrantID) String() string {
	return uuid.UUID(id).String()
}

func (id RegistrantID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the ID in canonical UUID form for JSON payloads.
func (id RegistrantID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the ID with the same validation as ParseRegistrantID.
func (id *RegistrantID) UnmarshalText(text []byte) error {
	parsed, err := ParseRegistrantID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return parsed, nil
}
