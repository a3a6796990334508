package memory

import (
	"context"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
)

// Compile-time checks to ensure InMemoryBleveEngine implements the engine
// and writer interfaces.
var (
	_ index.Engine = (*InMemoryBleveEngine)(nil)
	_ index.Writer = (*InMemoryBleveEngine)(nil)
)

// InMemoryBleveEngine is an index.Engine implementation that keeps its
// documents in memory and publishes each commit as an immutable bleve
// index.
//
// Snapshots handed out by OpenSnapshot remain searchable after newer
// commits; the bleve index backing a snapshot is closed once the engine and
// every holder have released it.
type InMemoryBleveEngine struct {
	mu      sync.Mutex
	docs    map[string]*index.Document
	types   map[string]index.FieldType
	dirty   bool
	closed  bool
	version uint64
	latest  *bleveSnapshot

	// parseMapping is used for looking up analyzers by name.
	parseMapping *mapping.IndexMappingImpl
}

// NewInMemoryBleveEngine creates an empty engine. The version of its first
// snapshot is derived from the current time so that validators produced by
// different engine instances do not collide.
func NewInMemoryBleveEngine() (*InMemoryBleveEngine, error) {
	version := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	snap, err := newBleveSnapshot(version, nil, nil)
	if err != nil {
		return nil, err
	}

	return &InMemoryBleveEngine{
		docs:         make(map[string]*index.Document),
		types:        make(map[string]index.FieldType),
		version:      version,
		latest:       snap,
		parseMapping: bleve.NewIndexMapping(),
	}, nil
}

// Close the engine and release its reference to the latest snapshot.
// Snapshots that are still open remain usable until closed.
func (e *InMemoryBleveEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.latest.Close()
}

// Index inserts a new document or replaces the existing document with the
// same ID. The change becomes visible after the next Commit.
func (e *InMemoryBleveEngine) Index(doc *index.Document) error {
	if doc.ID == "" {
		return xerrors.Errorf("index: %w", index.ErrMissingID)
	}

	dcopy := copyDoc(doc)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return xerrors.Errorf("index: %w", index.ErrClosed)
	}

	for _, f := range dcopy.Fields {
		if _, seen := e.types[f.Name]; !seen {
			e.types[f.Name] = f.Type
		}
	}
	e.docs[dcopy.ID] = dcopy
	e.dirty = true
	return nil
}

// Delete removes the document with the specified ID. The change becomes
// visible after the next Commit.
func (e *InMemoryBleveEngine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return xerrors.Errorf("delete: %w", index.ErrClosed)
	}

	if _, found := e.docs[id]; !found {
		return xerrors.Errorf("delete: %w", index.ErrNotFound)
	}
	delete(e.docs, id)
	e.dirty = true
	return nil
}

// Commit publishes all pending changes as a new snapshot and returns its
// version. If there are no pending changes the current version is returned.
func (e *InMemoryBleveEngine) Commit() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, xerrors.Errorf("commit: %w", index.ErrClosed)
	}
	if !e.dirty {
		return e.version, nil
	}

	docs := make(map[string]*index.Document, len(e.docs))
	for id, doc := range e.docs {
		docs[id] = doc
	}
	types := make(map[string]index.FieldType, len(e.types))
	for name, ft := range e.types {
		types[name] = ft
	}

	snap, err := newBleveSnapshot(e.version+1, docs, types)
	if err != nil {
		return 0, xerrors.Errorf("commit: %w", err)
	}

	prev := e.latest
	e.latest = snap
	e.version = snap.version
	e.dirty = false
	_ = prev.Close()

	return e.version, nil
}

// OpenSnapshot returns the latest committed snapshot. Callers must close
// the returned snapshot once they are done with it.
func (e *InMemoryBleveEngine) OpenSnapshot(_ context.Context) (index.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, xerrors.Errorf("open snapshot: %w", index.ErrClosed)
	}

	e.latest.incRef()
	return e.latest, nil
}

// Parse compiles text written in the bleve query-string syntax into a
// query. The named analyzer is applied to every match and phrase clause
// that targets a text field.
func (e *InMemoryBleveEngine) Parse(text, analyzer string) (index.Query, error) {
	if e.parseMapping.AnalyzerNamed(analyzer) == nil {
		return nil, xerrors.Errorf("parse: analyzer %q: %w", analyzer, index.ErrUnknownAnalyzer)
	}

	q, err := bleve.NewQueryStringQuery(text).Parse()
	if err != nil {
		return nil, xerrors.Errorf("parse %q (%v): %w", text, err, index.ErrBadQuery)
	}
	if err = validatePatterns(q); err != nil {
		return nil, xerrors.Errorf("parse %q (%v): %w", text, err, index.ErrBadQuery)
	}

	e.mu.Lock()
	textField := func(field string) bool {
		ft, found := e.types[field]
		return !found || ft == index.FieldText
	}
	applyAnalyzer(q, analyzer, textField)
	e.mu.Unlock()

	return &bleveQuery{q: q}, nil
}

func copyDoc(d *index.Document) *index.Document {
	dcopy := &index.Document{
		ID:     d.ID,
		Fields: make([]index.Field, len(d.Fields)),
	}
	copy(dcopy.Fields, d.Fields)
	return dcopy
}
