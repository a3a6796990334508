package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/xerrors"
)

const maxLineSize = 16 << 20

// openSeed opens a seed file for reading. Files with a .zst extension are
// decompressed transparently.
func openSeed(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, xerrors.Errorf("creating zstd decoder: %w", err)
	}
	return &zstdReadCloser{Decoder: dec, f: f}, nil
}

type zstdReadCloser struct {
	*zstd.Decoder
	f *os.File
}

func (r *zstdReadCloser) Close() error {
	r.Decoder.Close()
	return r.f.Close()
}

// readDocuments decodes newline-delimited JSON objects from r and passes
// each of them to docFn together with its raw encoding. Each object must
// carry a string _id member. Array members become repeated fields and null
// members are skipped. Blank lines are ignored.
func readDocuments(r io.Reader, schema *Schema, docFn func(*index.Document, json.RawMessage) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		doc, err := decodeDocument(line, schema)
		if err != nil {
			return xerrors.Errorf("line %d: %w", lineNo, err)
		}
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		if err = docFn(doc, raw); err != nil {
			return xerrors.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// decodeDocument walks the members of a JSON object in order so that the
// fields of the resulting document preserve the order of the input.
func decodeDocument(data []byte, schema *Schema) (*index.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, xerrors.Errorf("expected a JSON object")
	}

	doc := new(index.Document)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)

		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return nil, err
		}

		values, err := scalarValues(raw)
		if err != nil {
			return nil, xerrors.Errorf("field %q: %w", name, err)
		}

		if name == index.IDField {
			if len(values) != 1 {
				return nil, xerrors.Errorf("field %q: expected a single value", name)
			}
			doc.ID = values[0]
			continue
		}
		for _, v := range values {
			doc.Fields = append(doc.Fields, schema.field(name, v))
		}
	}

	if doc.ID == "" {
		return nil, index.ErrMissingID
	}
	return doc, nil
}

// scalarValues converts a JSON value into its textual values. Arrays yield
// one value per element; nested arrays and objects are rejected.
func scalarValues(raw json.RawMessage) ([]string, error) {
	if len(raw) != 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}

		var values []string
		for _, item := range items {
			if len(item) != 0 && item[0] == '[' {
				return nil, xerrors.Errorf("nested arrays are not supported")
			}
			v, ok, err := scalarValue(item)
			if err != nil {
				return nil, err
			} else if ok {
				values = append(values, v)
			}
		}
		return values, nil
	}

	v, ok, err := scalarValue(raw)
	if err != nil || !ok {
		return nil, err
	}
	return []string{v}, nil
}

func scalarValue(raw json.RawMessage) (string, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", false, err
	}

	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case json.Number:
		return t.String(), true, nil
	case bool:
		if t {
			return "true", true, nil
		}
		return "false", true, nil
	}
	return "", false, xerrors.Errorf("objects are not supported")
}
