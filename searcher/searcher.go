package searcher

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"math"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/indexgate/indexgate/rows"
	"github.com/indexgate/indexgate/sortspec"
	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/juju/clock"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/indexgate/indexgate/searcher DocumentStore

// DocumentStore is implemented by objects that can fetch full documents by
// their identifiers.
type DocumentStore interface {
	// Fetch returns one entry per identifier, in the same order. Entries
	// for unknown identifiers are nil.
	Fetch(ctx context.Context, ids []string) ([]json.RawMessage, error)
}

// NoopDocumentStore is a DocumentStore that never returns any documents.
type NoopDocumentStore struct{}

// Fetch implements DocumentStore.
func (NoopDocumentStore) Fetch(context.Context, []string) ([]json.RawMessage, error) {
	return nil, nil
}

// Request describes a query to execute.
type Request struct {
	// The query text.
	Query string

	// The name of the analyzer applied to the query text.
	Analyzer string

	// The number of ranked matches to skip and the maximum number of
	// matches to return after skipping.
	Skip  int
	Limit int

	// The sort keys; empty for relevance order.
	Sort sortspec.Spec

	// If true, full documents are attached to the returned rows.
	IncludeDocs bool
}

// ExplainResult is the outcome of an explain request.
type ExplainResult struct {
	// The canonical form of the parsed query.
	Query string

	// The canonical form of the query after expansion against the index.
	Rewritten string

	// The number of documents containing each term of the rewritten query,
	// keyed by the term in field:text form.
	Freqs map[string]uint64
}

// SearchResult is the outcome of a search request.
type SearchResult struct {
	// The canonical form of the parsed query.
	Query string

	// The total number of matching documents.
	TotalHits uint64

	// The time spent ranking matches and fetching their stored fields.
	SearchDuration time.Duration
	FetchDuration  time.Duration

	// The sort keys that were applied.
	Sort sortspec.Spec

	// The rows of the requested page.
	Rows []rows.Row
}

// Config encapsulates the settings for configuring an Executor.
type Config struct {
	// A parser for compiling query text.
	Parser index.Parser

	// A store for fetching full documents. If not specified, a no-op
	// store will be used instead.
	DocumentStore DocumentStore

	// A clock instance for measuring phase durations. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Parser == nil {
		err = multierror.Append(err, xerrors.Errorf("query parser has not been provided"))
	}
	if cfg.DocumentStore == nil {
		cfg.DocumentStore = NoopDocumentStore{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Executor runs explain and search requests against index snapshots.
type Executor struct {
	cfg Config
}

// NewExecutor creates a new Executor with the specified config.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("searcher: config validation failed: %w", err)
	}
	return &Executor{cfg: cfg}, nil
}

// IsClientError returns true if err was caused by invalid query input
// rather than by a failure of the index.
func IsClientError(err error) bool {
	return xerrors.Is(err, index.ErrBadQuery) || xerrors.Is(err, index.ErrUnknownAnalyzer)
}

// Explain parses the query of req, expands it against snap and looks up the
// document frequency of every term of the expanded query.
func (e *Executor) Explain(ctx context.Context, snap index.Snapshot, req Request) (*ExplainResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "searcher.Explain")
	defer span.Finish()

	q, err := e.cfg.Parser.Parse(req.Query, req.Analyzer)
	if err != nil {
		return nil, xerrors.Errorf("explain: %w", err)
	}

	rewritten, err := snap.Rewrite(ctx, q)
	if err != nil {
		return nil, xerrors.Errorf("explain: rewrite: %w", err)
	}

	terms := rewritten.Terms()
	freqs := make(map[string]uint64, len(terms))
	for _, t := range terms {
		if _, seen := freqs[t.String()]; seen {
			continue
		}

		freq, err := snap.DocFreq(ctx, t)
		if err != nil {
			return nil, xerrors.Errorf("explain: doc freq: %w", err)
		}
		freqs[t.String()] = freq
	}

	return &ExplainResult{
		Query:     q.String(),
		Rewritten: rewritten.String(),
		Freqs:     freqs,
	}, nil
}

// Search parses the query of req, ranks the matches in snap and builds the
// rows of the requested page.
func (e *Executor) Search(ctx context.Context, snap index.Snapshot, req Request) (*SearchResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "searcher.Search")
	defer span.Finish()

	q, err := e.cfg.Parser.Parse(req.Query, req.Analyzer)
	if err != nil {
		return nil, xerrors.Errorf("search: %w", err)
	}

	tick := e.cfg.Clock.Now()
	top, err := snap.Search(ctx, q, topN(req.Skip, req.Limit), req.Sort)
	if err != nil {
		return nil, xerrors.Errorf("search: %w", err)
	}
	searchDuration := e.cfg.Clock.Now().Sub(tick)

	tick = e.cfg.Clock.Now()
	matches, ids, err := rows.Materialize(ctx, snap, top, req.Skip, req.Limit, len(req.Sort) != 0)
	if err != nil {
		return nil, xerrors.Errorf("search: %w", err)
	}
	if req.IncludeDocs && len(ids) != 0 {
		if err = e.attachDocs(ctx, matches, ids); err != nil {
			return nil, xerrors.Errorf("search: %w", err)
		}
	}
	fetchDuration := e.cfg.Clock.Now().Sub(tick)

	span.SetTag("total_hits", top.TotalHits)
	e.cfg.Logger.WithFields(logrus.Fields{
		"query":           req.Query,
		"total_hits":      top.TotalHits,
		"rows":            len(matches),
		"search_duration": searchDuration.String(),
		"fetch_duration":  fetchDuration.String(),
	}).Debug("executed search")

	return &SearchResult{
		Query:          q.String(),
		TotalHits:      top.TotalHits,
		SearchDuration: searchDuration,
		FetchDuration:  fetchDuration,
		Sort:           req.Sort,
		Rows:           matches,
	}, nil
}

// topN returns the number of ranked matches needed to serve a page,
// saturating at math.MaxInt.
func topN(skip, limit int) int {
	if skip < 0 || limit < 0 {
		return 0
	}
	if limit > math.MaxInt-skip {
		return math.MaxInt
	}
	return skip + limit
}

func (e *Executor) attachDocs(ctx context.Context, matches []rows.Row, ids []string) error {
	docs, err := e.cfg.DocumentStore.Fetch(ctx, ids)
	if err != nil {
		return xerrors.Errorf("fetch documents: %w", err)
	}

	// Stores that do not support full documents return no entries.
	if len(docs) != len(matches) {
		return nil
	}
	for i := range matches {
		matches[i].Doc = docs[i]
	}
	return nil
}
