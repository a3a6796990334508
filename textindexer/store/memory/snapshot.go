package memory

import (
	"context"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/numeric"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/indexgate/indexgate/sortspec"
	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
)

// Compile-time check to ensure bleveSnapshot implements index.Snapshot.
var _ index.Snapshot = (*bleveSnapshot)(nil)

// bleveSnapshot is an immutable bleve index built from the document set of
// a single commit.
type bleveSnapshot struct {
	version uint64
	idx     bleve.Index
	docs    map[string]*index.Document

	// The number of outstanding references. The engine holds one reference
	// while the snapshot is the latest one.
	refs int64
}

func newBleveSnapshot(version uint64, docs map[string]*index.Document, types map[string]index.FieldType) (*bleveSnapshot, error) {
	idx, err := bleve.NewMemOnly(makeMapping(types))
	if err != nil {
		return nil, err
	}

	batch := idx.NewBatch()
	for id, doc := range docs {
		if err = batch.Index(id, makeBleveDoc(doc)); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	if err = idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, err
	}

	return &bleveSnapshot{
		version: version,
		idx:     idx,
		docs:    docs,
		refs:    1,
	}, nil
}

func (s *bleveSnapshot) incRef() { atomic.AddInt64(&s.refs, 1) }

// Version implements index.Snapshot.
func (s *bleveSnapshot) Version() uint64 { return s.version }

// Close drops a reference to the snapshot. The backing bleve index is
// closed when the last reference is dropped.
func (s *bleveSnapshot) Close() error {
	switch refs := atomic.AddInt64(&s.refs, -1); {
	case refs == 0:
		return s.idx.Close()
	case refs < 0:
		return xerrors.Errorf("close snapshot %x: %w", s.version, index.ErrClosed)
	}
	return nil
}

// Search implements index.Snapshot.
func (s *bleveSnapshot) Search(ctx context.Context, q index.Query, n int, sort sortspec.Spec) (*index.TopDocs, error) {
	bq, err := unwrapQuery(q)
	if err != nil {
		return nil, xerrors.Errorf("search: %w", err)
	}

	// The collector preallocates room for n hits.
	if n > len(s.docs) {
		n = len(s.docs)
	} else if n < 0 {
		n = 0
	}

	searchReq := bleve.NewSearchRequestOptions(bq, n, 0, false)
	if len(sort) != 0 {
		searchReq.SortByCustom(makeSortOrder(sort))
	}

	rs, err := s.idx.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, xerrors.Errorf("search: %w", err)
	}

	td := &index.TopDocs{
		TotalHits: rs.Total,
		ScoreDocs: make([]index.ScoreDoc, len(rs.Hits)),
	}
	if len(sort) != 0 {
		td.SortFields = sort
	}
	for i, hit := range rs.Hits {
		td.ScoreDocs[i] = index.ScoreDoc{DocID: hit.ID, Score: hit.Score}

		// Field-sorted matches are ranked by their sort values alone.
		if len(sort) != 0 {
			td.ScoreDocs[i].Score = math.NaN()
			td.ScoreDocs[i].SortValues = decodeSortValues(sort, hit.Sort)
		}
	}

	return td, nil
}

// Document implements index.Snapshot.
func (s *bleveSnapshot) Document(_ context.Context, docID string) ([]index.StoredField, error) {
	doc, found := s.docs[docID]
	if !found {
		return nil, xerrors.Errorf("document %q: %w", docID, index.ErrNotFound)
	}

	fields := make([]index.StoredField, 0, len(doc.Fields)+1)
	fields = append(fields, index.StoredField{Name: index.IDField, Value: doc.ID})
	for _, f := range doc.Fields {
		if f.Store {
			fields = append(fields, index.StoredField{Name: f.Name, Value: f.Value})
		}
	}
	return fields, nil
}

// DocFreq implements index.Snapshot.
func (s *bleveSnapshot) DocFreq(ctx context.Context, t index.Term) (uint64, error) {
	tq := bleve.NewTermQuery(t.Text)
	tq.SetField(fieldOrDefault(t.Field))

	rs, err := s.idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(tq, 0, 0, false))
	if err != nil {
		return 0, xerrors.Errorf("doc freq %s: %w", t, err)
	}
	return rs.Total, nil
}

// Rewrite implements index.Snapshot.
func (s *bleveSnapshot) Rewrite(_ context.Context, q index.Query) (index.Query, error) {
	bq, err := unwrapQuery(q)
	if err != nil {
		return nil, xerrors.Errorf("rewrite: %w", err)
	}

	rw := &rewriter{idx: s.idx, maxExpansions: maxExpansions}
	rewritten, err := rw.rewrite(bq)
	if err != nil {
		return nil, xerrors.Errorf("rewrite: %w", err)
	}
	return &bleveQuery{q: rewritten}, nil
}

// makeMapping returns an index mapping where keyword and numeric fields get
// dedicated field mappings and every other field is mapped dynamically as
// text. Stored values are served from the document set so bleve is not
// asked to store them.
func makeMapping(types map[string]index.FieldType) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.StoreDynamic = false

	for name, ft := range types {
		var fm *mapping.FieldMapping
		switch ft {
		case index.FieldKeyword:
			fm = bleve.NewTextFieldMapping()
			fm.Analyzer = keyword.Name
		case index.FieldNumeric:
			fm = bleve.NewNumericFieldMapping()
		default:
			continue
		}
		fm.Store = false
		im.DefaultMapping.AddFieldMappingsAt(name, fm)
	}

	return im
}

// makeBleveDoc converts doc into the generic map form understood by bleve.
// Repeated fields are indexed as arrays.
func makeBleveDoc(doc *index.Document) map[string]interface{} {
	out := make(map[string]interface{}, len(doc.Fields))
	for _, f := range doc.Fields {
		if f.Name == index.IDField || f.Name == index.DefaultField {
			continue
		}

		var val interface{} = f.Value
		if f.Type == index.FieldNumeric {
			num, err := strconv.ParseFloat(f.Value, 64)
			if err != nil {
				continue
			}
			val = num
		}

		switch existing := out[f.Name].(type) {
		case nil:
			out[f.Name] = val
		case []interface{}:
			out[f.Name] = append(existing, val)
		default:
			out[f.Name] = []interface{}{existing, val}
		}
	}
	return out
}

func makeSortOrder(sort sortspec.Spec) search.SortOrder {
	order := make(search.SortOrder, len(sort))
	for i, key := range sort {
		sf := &search.SortField{
			Field: key.Field,
			Desc:  key.Reverse,
			Type:  search.SortFieldAsString,
		}
		if key.Type.Numeric() {
			sf.Type = search.SortFieldAsNumber
		}
		order[i] = sf
	}
	return order
}

// decodeSortValues converts the encoded per-key sort values reported by
// bleve into plain values. Missing values are reported as nil.
func decodeSortValues(sort sortspec.Spec, raw []string) []interface{} {
	values := make([]interface{}, len(sort))
	for i, key := range sort {
		if i >= len(raw) || raw[i] == search.HighTerm || raw[i] == search.LowTerm {
			continue
		}

		if !key.Type.Numeric() {
			values[i] = raw[i]
			continue
		}

		i64, err := numeric.PrefixCoded(raw[i]).Int64()
		if err != nil {
			continue
		}
		f64 := numeric.Int64ToFloat64(i64)
		switch key.Type {
		case sortspec.Int, sortspec.Long:
			values[i] = int64(f64)
		default:
			values[i] = f64
		}
	}
	return values
}

func fieldOrDefault(field string) string {
	if field == "" {
		return index.DefaultField
	}
	return field
}
