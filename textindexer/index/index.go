package index

import (
	"context"

	"github.com/indexgate/indexgate/sortspec"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/indexgate/indexgate/textindexer/index Engine,Snapshot,Query

const (
	// IDField is the name of the stored field that carries the document
	// identifier.
	IDField = "_id"

	// DefaultField is the field searched by query clauses that do not name
	// a field explicitly.
	DefaultField = "_all"
)

// Query is a compiled query that can be executed against a Snapshot.
type Query interface {
	// String returns the canonical textual form of the query.
	String() string

	// Terms returns the distinct terms referenced by the query. For queries
	// that expand to terms at execution time (prefix, wildcard, fuzzy) only
	// a rewritten query reports the complete set.
	Terms() []Term
}

// Parser is implemented by objects that can compile query text into a Query
// using a named analyzer.
type Parser interface {
	// Parse compiles text into a Query. It returns ErrBadQuery if text is
	// not valid query syntax and ErrUnknownAnalyzer if no analyzer with the
	// specified name exists.
	Parse(text, analyzer string) (Query, error)
}

// Engine is implemented by inverted-index engines that expose versioned,
// immutable snapshots of their contents.
type Engine interface {
	Parser

	// OpenSnapshot returns the latest committed snapshot. Each returned
	// snapshot must be closed exactly once by the caller.
	OpenSnapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot is an immutable, versioned view of the index at a point in time.
type Snapshot interface {
	// Version returns a token that increases whenever the underlying index
	// changes. Two snapshots with the same version have identical contents.
	Version() uint64

	// Search executes q and returns the top n ranked matches. If sort is
	// non-empty, matches are ordered by the sort keys instead of relevance.
	Search(ctx context.Context, q Query, n int, sort sortspec.Spec) (*TopDocs, error)

	// Document returns the stored fields of the document referenced by a
	// ScoreDoc in the order in which they were indexed. The identifier is
	// reported as a field named IDField.
	Document(ctx context.Context, docID string) ([]StoredField, error)

	// Rewrite expands q into its primitive term form against the contents
	// of this snapshot.
	Rewrite(ctx context.Context, q Query) (Query, error)

	// DocFreq returns the number of documents containing t.
	DocFreq(ctx context.Context, t Term) (uint64, error)

	// Close releases the snapshot.
	Close() error
}

// Writer is implemented by engines that accept document updates. Updates
// only become visible to snapshots opened after a successful Commit.
type Writer interface {
	// Index inserts a new document or replaces an existing one with the
	// same ID.
	Index(doc *Document) error

	// Delete removes the document with the specified ID.
	Delete(id string) error

	// Commit publishes pending changes and returns the version of the
	// latest snapshot.
	Commit() (uint64, error)
}

// Term identifies a single indexed term within a field.
type Term struct {
	Field string
	Text  string
}

// String returns the term in field:text form.
func (t Term) String() string { return t.Field + ":" + t.Text }

// ScoreDoc is a single ranked match.
type ScoreDoc struct {
	// An engine-specific reference that can be passed to Snapshot.Document.
	DocID string

	// The relevance score or NaN if the match was not scored.
	Score float64

	// The raw values used to order the match, one per sort key. Only
	// populated for sorted searches.
	SortValues []interface{}
}

// TopDocs is the outcome of a Snapshot.Search call.
type TopDocs struct {
	// The number of documents matching the query. This may exceed the
	// number of returned ScoreDocs.
	TotalHits uint64

	// The ranked matches.
	ScoreDocs []ScoreDoc

	// The sort keys used to order ScoreDocs; nil for relevance order.
	SortFields sortspec.Spec
}

// StoredField is a single stored name/value pair of a document.
type StoredField struct {
	Name  string
	Value string
}
