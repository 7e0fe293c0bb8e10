package flightconfig

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// ConfigID identifies a single flight configuration of a vehicle document. The
// identifier is opaque: different documents may reuse the same value for
// unrelated configurations, so a ConfigID is only meaningful within the
// document that minted it.
//
// A ConfigID is comparable and may be used directly as a map key. The zero
// value carries the error marker (see IsError) and must never be used to query
// a parameter value.
//
// It is defined as its own type to provide a compile-time guarantee against
// mixing configuration identifiers with other UUID-backed identifiers.
type ConfigID uuid.UUID

// DefaultValueID is the reserved identifier that denotes "no specific flight
// configuration - use the default value". It never keys an override entry of a
// ParameterSet.
//
// The sentinel is a fixed value so that identifiers exchanged between
// processes agree on which entry is the default.
var DefaultValueID = ConfigID(uuid.Max)

// NewConfigID returns a fresh, unique identifier for a flight configuration.
func NewConfigID() ConfigID {
	return ConfigID(uuid.New())
}

// ParseConfigID parses the textual form produced by MarshalText and String.
//
// Note that the nil UUID parses successfully into the error-marked identifier;
// callers that reject invalid identifiers should check Valid on the result.
func ParseConfigID(s string) (ConfigID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ConfigID{}, fmt.Errorf("parse config id: %w", err)
	}
	return ConfigID(u), nil
}

// IsError reports whether the identifier carries the error marker. Such an
// identifier denotes a configuration that could not be resolved and must never
// be used to look up a parameter value.
func (id ConfigID) IsError() bool {
	return id == ConfigID(uuid.Nil)
}

// Valid reports whether the identifier may key a parameter lookup or override.
func (id ConfigID) Valid() bool {
	return !id.IsError()
}

// Compare totally orders identifiers by their raw bytes. It returns a negative
// number when id sorts before other, zero when they are equal, and a positive
// number otherwise.
//
// The order carries no domain meaning; it only keeps listings reproducible.
func (id ConfigID) Compare(other ConfigID) int {
	return bytes.Compare(id[:], other[:])
}

// ShortKey returns an abbreviated textual form for diagnostics dumps and logs.
// It is not unique and must not be parsed back.
func (id ConfigID) ShortKey() string {
	return uuid.UUID(id).String()[:8]
}

func (id ConfigID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ConfigID) UnmarshalText(text []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(text)
}

func (id ConfigID) String() string { return "config(" + uuid.UUID(id).String() + ")" }
