package rows

import (
	"bytes"
	"encoding/json"
)

// FieldValue is the value of a flattened stored field. It is either a
// Scalar, for fields that occur once in a document, or a List, for fields
// that occur more than once.
type FieldValue interface {
	isFieldValue()
}

// Scalar is the value of a field that occurs once.
type Scalar string

// List holds the values of a repeated field in order of appearance.
type List []string

func (Scalar) isFieldValue() {}
func (List) isFieldValue()   {}

// Fields is an insertion-ordered map of field names to flattened values.
// The zero value is ready to use.
type Fields struct {
	names  []string
	values map[string]FieldValue
}

// Add records a value for name. The first value of a field is stored as a
// Scalar. A second value turns the field into a List holding both values
// and any further values are appended to the List.
func (f *Fields) Add(name, value string) {
	if f.values == nil {
		f.values = make(map[string]FieldValue)
	}

	switch prev := f.values[name].(type) {
	case nil:
		f.names = append(f.names, name)
		f.values[name] = Scalar(value)
	case Scalar:
		f.values[name] = List{string(prev), value}
	case List:
		f.values[name] = append(prev, value)
	}
}

// Get returns the value recorded for name or nil if no value was recorded.
func (f *Fields) Get(name string) FieldValue {
	if f == nil {
		return nil
	}
	return f.values[name]
}

// Names returns the field names in the order they were first added.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	return f.names
}

// Len returns the number of distinct fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// MarshalJSON encodes the fields as a JSON object whose keys appear in
// insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var val []byte
		switch v := f.values[name].(type) {
		case Scalar:
			val, err = json.Marshal(string(v))
		case List:
			val, err = json.Marshal([]string(v))
		}
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
