package index

// FieldType describes how the value of a field is indexed.
type FieldType uint8

const (
	// FieldText values are analyzed before being indexed.
	FieldText FieldType = iota

	// FieldKeyword values are indexed verbatim as a single term.
	FieldKeyword

	// FieldNumeric values are parsed as numbers and can be used for
	// numeric sorting and range queries.
	FieldNumeric
)

// Field is a single name/value pair of a document. A document may contain
// several fields with the same name.
type Field struct {
	Name  string
	Value string
	Type  FieldType

	// Store is true if the value should be returned with search results.
	Store bool
}

// Document describes a document that can be added to an index.
type Document struct {
	// The unique document identifier.
	ID string

	// The document fields in indexing order.
	Fields []Field
}
