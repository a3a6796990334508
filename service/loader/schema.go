package loader

import (
	"io/ioutil"
	"path/filepath"

	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Schema describes how the fields of seed documents are indexed. Fields
// that are not listed are indexed as analyzed text.
type Schema struct {
	// Fields indexed verbatim as a single term.
	Keyword []string `yaml:"keyword"`

	// Fields indexed as numbers.
	Numeric []string `yaml:"numeric"`

	// Fields that are searchable but not returned with results.
	Unstored []string `yaml:"unstored"`

	types    map[string]index.FieldType
	unstored map[string]struct{}
}

// LoadSchema reads a YAML schema file. An empty path yields a schema that
// indexes and stores every field as text.
func LoadSchema(path string) (*Schema, error) {
	s := new(Schema)
	if path == "" {
		return s.compile()
	}

	data, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, xerrors.Errorf("read schema %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, s); err != nil {
		return nil, xerrors.Errorf("parse schema %s: %w", path, err)
	}
	return s.compile()
}

func (s *Schema) compile() (*Schema, error) {
	s.types = make(map[string]index.FieldType)
	for _, name := range s.Keyword {
		s.types[name] = index.FieldKeyword
	}
	for _, name := range s.Numeric {
		if ft, dup := s.types[name]; dup && ft != index.FieldNumeric {
			return nil, xerrors.Errorf("schema: field %q is declared as both keyword and numeric", name)
		}
		s.types[name] = index.FieldNumeric
	}

	s.unstored = make(map[string]struct{}, len(s.Unstored))
	for _, name := range s.Unstored {
		s.unstored[name] = struct{}{}
	}
	return s, nil
}

// field builds an index field for a single value of the named field.
func (s *Schema) field(name, value string) index.Field {
	_, unstored := s.unstored[name]
	return index.Field{
		Name:  name,
		Value: value,
		Type:  s.types[name],
		Store: !unstored,
	}
}
