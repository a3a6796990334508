// Package sortspec compiles the sort mini-language accepted by the search
// endpoint into an ordered list of typed sort keys.
//
// A specification is a comma-separated list of keys. Each key is a field
// name optionally prefixed by a direction marker ('\' for descending, '/'
// for ascending) and optionally suffixed by ":type" where type is one of
// string, int, long, float, double or date.
package sortspec

import "strings"

// Type describes how the values of a sort field are compared.
type Type uint8

const (
	// String compares field values lexicographically.
	String Type = iota

	// Int compares field values as 32-bit integers.
	Int

	// Long compares field values as 64-bit integers.
	Long

	// Float compares field values as 32-bit floating point numbers.
	Float

	// Double compares field values as 64-bit floating point numbers.
	Double
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "string"
	}
}

// Numeric returns true if values of this type are compared as numbers.
func (t Type) Numeric() bool { return t != String }

// Key is a single entry of a sort specification.
type Key struct {
	// The name of the field to sort by.
	Field string

	// The comparison type for the field values.
	Type Type

	// Reverse is true when the field should be sorted in descending order.
	Reverse bool
}

// Spec is an ordered list of sort keys. Ties on a key are broken by the
// keys that follow it. An empty Spec requests relevance ordering.
type Spec []Key

// Descriptor is the serializable description of a sort key.
type Descriptor struct {
	Field   string `json:"field"`
	Reverse bool   `json:"reverse"`
	Type    string `json:"type"`
}

// Descriptors returns the serializable form of the spec or nil if the spec
// is empty.
func (s Spec) Descriptors() []Descriptor {
	if len(s) == 0 {
		return nil
	}

	out := make([]Descriptor, len(s))
	for i, k := range s {
		out[i] = Descriptor{Field: k.Field, Reverse: k.Reverse, Type: k.Type.String()}
	}
	return out
}

// typeAliases maps the suffixes accepted after ':' to a Type. Unknown
// suffixes fall back to String.
var typeAliases = map[string]Type{
	"string": String,
	"int":    Int,
	"long":   Long,
	"date":   Long,
	"float":  Float,
	"double": Double,
}

// Compile parses spec into a Spec. Compile never fails: unrecognized type
// suffixes compile to String and empty keys are skipped. An empty input
// yields an empty Spec.
func Compile(spec string) Spec {
	if spec == "" {
		return nil
	}

	var out Spec
	for _, tok := range strings.Split(spec, ",") {
		if tok == "" {
			continue
		}

		var key Key
		switch tok[0] {
		case '\\':
			key.Reverse = true
			tok = tok[1:]
		case '/':
			tok = tok[1:]
		}

		key.Field = tok
		if sep := strings.IndexByte(tok, ':'); sep != -1 {
			key.Field = tok[:sep]
			key.Type = typeAliases[tok[sep+1:]]
		}

		if key.Field == "" {
			continue
		}
		out = append(out, key)
	}

	return out
}
