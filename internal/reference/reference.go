// Package reference implements the Reference identity: an opaque,
// hashable (prefix, identifier) pair that names an entity drawn from a
// controlled vocabulary, plus CURIE parsing/formatting and prefix interning.
package reference

import (
	"fmt"
	"strings"
)

// MalformedCurie is returned when a string fails to parse as prefix:identifier.
type MalformedCurie struct {
	Input  string
	Reason string
}

func (e *MalformedCurie) Error() string {
	return fmt.Sprintf("malformed curie %q: %s", e.Input, e.Reason)
}

// Reference is an immutable (prefix, identifier) identity, with an optional
// display name carried for presentation only (excluded from equality and
// hashing). Two references are equal iff prefix and identifier are equal,
// case-sensitively.
type Reference struct {
	Prefix     string
	Identifier string
	Name       string // display only, never compared
}

// New constructs a Reference, interning prefix and identifier so that
// repeated references to the same vocabulary term share backing strings.
// This matters at the scale a mapping assembly run targets (tens of
// millions of mentions of a small number of distinct prefixes).
func New(prefix, identifier string) Reference {
	return Reference{
		Prefix:     internPrefix(prefix),
		Identifier: internIdentifier(identifier),
	}
}

// NewNamed constructs a Reference carrying a display name.
func NewNamed(prefix, identifier, name string) Reference {
	r := New(prefix, identifier)
	r.Name = name
	return r
}

// Curie returns the canonical prefix:identifier serialization.
func (r Reference) Curie() string {
	return r.Prefix + ":" + r.Identifier
}

func (r Reference) String() string { return r.Curie() }

// Equal reports whether two references share the same prefix and identifier.
func (r Reference) Equal(o Reference) bool {
	return r.Prefix == o.Prefix && r.Identifier == o.Identifier
}

// IsZero reports whether r is the zero value (no prefix and no identifier).
func (r Reference) IsZero() bool {
	return r.Prefix == "" && r.Identifier == ""
}

// Parse splits a CURIE string "prefix:identifier" at the first colon.
// Both sides must be non-empty and contain no whitespace.
func Parse(curie string) (Reference, error) {
	idx := strings.IndexByte(curie, ':')
	if idx <= 0 || idx == len(curie)-1 {
		return Reference{}, &MalformedCurie{Input: curie, Reason: "missing prefix:identifier separator"}
	}

	prefix, identifier := curie[:idx], curie[idx+1:]
	if containsWhitespace(prefix) || containsWhitespace(identifier) {
		return Reference{}, &MalformedCurie{Input: curie, Reason: "prefix or identifier contains whitespace"}
	}

	return New(prefix, identifier), nil
}

// MustParse is like Parse but panics on error; intended for tests and
// literal references in code, never for untrusted input.
func MustParse(curie string) Reference {
	r, err := Parse(curie)
	if err != nil {
		panic(err)
	}
	return r
}

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) >= 0
}

// Normalizer maps a raw prefix to its canonical form, e.g. via an external
// registry such as the Bioregistry. The core never hardcodes such a mapping;
// it treats normalization as a supplied capability.
type Normalizer func(prefix string) string

// Normalize rewrites r's prefix through fn, leaving the identifier and name
// untouched. A nil fn returns r unchanged.
func Normalize(r Reference, fn Normalizer) Reference {
	if fn == nil {
		return r
	}
	return NewNamed(fn(r.Prefix), r.Identifier, r.Name)
}
