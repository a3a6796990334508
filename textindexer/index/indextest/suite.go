package indextest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/indexgate/indexgate/sortspec"
	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

// EngineWriter is implemented by engines that accept document updates.
type EngineWriter interface {
	index.Engine
	index.Writer
}

// SuiteBase defines a re-usable set of index-related tests that can
// be executed against any type that implements EngineWriter.
type SuiteBase struct {
	engine EngineWriter
}

// SetEngine configures the test-suite to run all tests against engine.
func (s *SuiteBase) SetEngine(engine EngineWriter) {
	s.engine = engine
}

// TestIndexDocument verifies the indexing logic for new and existing documents.
func (s *SuiteBase) TestIndexDocument(c *gc.C) {
	doc := &index.Document{
		ID: uuid.New().String(),
		Fields: []index.Field{
			{Name: "title", Value: "Illustrious examples", Store: true},
			{Name: "content", Value: "Lorem ipsum dolor"},
		},
	}
	c.Assert(s.engine.Index(doc), gc.IsNil)

	// Update existing document
	updatedDoc := &index.Document{
		ID: doc.ID,
		Fields: []index.Field{
			{Name: "title", Value: "A more exciting title", Store: true},
		},
	}
	c.Assert(s.engine.Index(updatedDoc), gc.IsNil)
	s.commit(c)

	snap := s.openSnapshot(c)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	got, err := snap.Document(context.TODO(), doc.ID)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, []index.StoredField{
		{Name: index.IDField, Value: doc.ID},
		{Name: "title", Value: "A more exciting title"},
	})

	// Insert document without an ID
	err = s.engine.Index(&index.Document{})
	c.Assert(xerrors.Is(err, index.ErrMissingID), gc.Equals, true)
}

// TestDocumentStoredFields verifies that only stored fields are returned
// and that repeated fields retain their indexing order.
func (s *SuiteBase) TestDocumentStoredFields(c *gc.C) {
	doc := &index.Document{
		ID: "doc-1",
		Fields: []index.Field{
			{Name: "tag", Value: "go", Type: index.FieldKeyword, Store: true},
			{Name: "body", Value: "not stored"},
			{Name: "tag", Value: "search", Type: index.FieldKeyword, Store: true},
			{Name: "price", Value: "9.5", Type: index.FieldNumeric, Store: true},
		},
	}
	c.Assert(s.engine.Index(doc), gc.IsNil)
	s.commit(c)

	snap := s.openSnapshot(c)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	got, err := snap.Document(context.TODO(), "doc-1")
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, []index.StoredField{
		{Name: index.IDField, Value: "doc-1"},
		{Name: "tag", Value: "go"},
		{Name: "tag", Value: "search"},
		{Name: "price", Value: "9.5"},
	})

	// Look up unknown
	_, err = snap.Document(context.TODO(), "no-such-doc")
	c.Assert(xerrors.Is(err, index.ErrNotFound), gc.Equals, true)
}

// TestDelete verifies that deleted documents disappear after a commit.
func (s *SuiteBase) TestDelete(c *gc.C) {
	s.indexNumbered(c, 3, func(i int) string { return "lorem" })
	s.commit(c)

	c.Assert(s.engine.Delete("doc-1"), gc.IsNil)
	s.commit(c)

	td := s.search(c, "content:lorem", 10, nil)
	c.Assert(td.TotalHits, gc.Equals, uint64(2))
	for _, id := range docIDs(td) {
		c.Assert(id, gc.Not(gc.Equals), "doc-1")
	}

	err := s.engine.Delete("doc-1")
	c.Assert(xerrors.Is(err, index.ErrNotFound), gc.Equals, true)
}

// TestSnapshotIsolation verifies that open snapshots are not affected by
// subsequent commits and that versions increase with every commit.
func (s *SuiteBase) TestSnapshotIsolation(c *gc.C) {
	s.indexNumbered(c, 5, func(i int) string { return "ovidius poeta" })
	s.commit(c)

	before := s.openSnapshot(c)
	defer func() { c.Assert(before.Close(), gc.IsNil) }()

	s.indexNumbered(c, 10, func(i int) string { return "ovidius poeta" })
	s.commit(c)

	after := s.openSnapshot(c)
	defer func() { c.Assert(after.Close(), gc.IsNil) }()

	c.Assert(after.Version() > before.Version(), gc.Equals, true)

	q, err := s.engine.Parse("content:poeta", "standard")
	c.Assert(err, gc.IsNil)

	td, err := before.Search(context.TODO(), q, 100, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(td.TotalHits, gc.Equals, uint64(5))

	td, err = after.Search(context.TODO(), q, 100, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(td.TotalHits, gc.Equals, uint64(10))
}

// TestCommitWithoutChanges verifies that the version does not change if
// nothing was modified since the last commit.
func (s *SuiteBase) TestCommitWithoutChanges(c *gc.C) {
	s.indexNumbered(c, 1, func(i int) string { return "lorem" })
	v1 := s.commit(c)
	v2 := s.commit(c)
	c.Assert(v2, gc.Equals, v1)

	snap := s.openSnapshot(c)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()
	c.Assert(snap.Version(), gc.Equals, v1)
}

// TestMatchSearch verifies that TotalHits reports all matches while the
// returned matches are capped to the requested count.
func (s *SuiteBase) TestMatchSearch(c *gc.C) {
	var expIDs []string
	s.indexNumbered(c, 50, func(i int) string {
		if i%5 == 0 {
			expIDs = append(expIDs, fmt.Sprintf("doc-%d", i))
			return "Lorem Dolor Ipsum"
		}
		return "Ovidius poeta in terra pontica"
	})
	s.commit(c)

	td := s.search(c, "content:lorem", 100, nil)
	c.Assert(td.TotalHits, gc.Equals, uint64(len(expIDs)))
	c.Assert(sorted(docIDs(td)), gc.DeepEquals, sorted(expIDs))
	c.Assert(td.SortFields, gc.IsNil)
	for _, sd := range td.ScoreDocs {
		c.Assert(math.IsNaN(sd.Score), gc.Equals, false)
		c.Assert(sd.SortValues, gc.IsNil)
	}

	td = s.search(c, "content:lorem", 3, nil)
	c.Assert(td.TotalHits, gc.Equals, uint64(len(expIDs)))
	c.Assert(td.ScoreDocs, gc.HasLen, 3)
}

// TestSortedSearch verifies that matches can be ordered by numeric and
// keyword fields in either direction.
func (s *SuiteBase) TestSortedSearch(c *gc.C) {
	for i, name := range []string{"cherry", "apple", "banana"} {
		doc := &index.Document{
			ID: name,
			Fields: []index.Field{
				{Name: "name", Value: name, Type: index.FieldKeyword, Store: true},
				{Name: "price", Value: fmt.Sprint(10 * (i + 1)), Type: index.FieldNumeric, Store: true},
				{Name: "content", Value: "fruit"},
			},
		}
		c.Assert(s.engine.Index(doc), gc.IsNil)
	}
	s.commit(c)

	td := s.search(c, "content:fruit", 10, sortspec.Compile("price:int"))
	c.Assert(docIDs(td), gc.DeepEquals, []string{"cherry", "apple", "banana"})
	c.Assert(td.SortFields, gc.DeepEquals, sortspec.Compile("price:int"))
	for i, sd := range td.ScoreDocs {
		c.Assert(math.IsNaN(sd.Score), gc.Equals, true)
		c.Assert(sd.SortValues, gc.DeepEquals, []interface{}{int64(10 * (i + 1))})
	}

	td = s.search(c, "content:fruit", 10, sortspec.Compile(`\price:double`))
	c.Assert(docIDs(td), gc.DeepEquals, []string{"banana", "apple", "cherry"})
	c.Assert(td.ScoreDocs[0].SortValues, gc.DeepEquals, []interface{}{30.0})

	td = s.search(c, "content:fruit", 10, sortspec.Compile("name"))
	c.Assert(docIDs(td), gc.DeepEquals, []string{"apple", "banana", "cherry"})
	c.Assert(td.ScoreDocs[0].SortValues, gc.DeepEquals, []interface{}{"apple"})
}

// TestParseErrors verifies that invalid syntax and unknown analyzers are
// reported with the appropriate errors.
func (s *SuiteBase) TestParseErrors(c *gc.C) {
	_, err := s.engine.Parse("title:>foo", "standard")
	c.Assert(xerrors.Is(err, index.ErrBadQuery), gc.Equals, true, gc.Commentf("%v", err))

	_, err = s.engine.Parse("lorem", "no-such-analyzer")
	c.Assert(xerrors.Is(err, index.ErrUnknownAnalyzer), gc.Equals, true, gc.Commentf("%v", err))
}

// TestRewriteAndDocFreq verifies that multi-term clauses are expanded to the
// matching dictionary terms and that document frequencies are reported for
// them.
func (s *SuiteBase) TestRewriteAndDocFreq(c *gc.C) {
	tags := []string{"apple", "apricot", "apricot", "banana"}
	for i, tag := range tags {
		doc := &index.Document{
			ID:     fmt.Sprintf("doc-%d", i),
			Fields: []index.Field{{Name: "tag", Value: tag, Type: index.FieldKeyword}},
		}
		c.Assert(s.engine.Index(doc), gc.IsNil)
	}
	s.commit(c)

	snap := s.openSnapshot(c)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	q, err := s.engine.Parse("tag:ap*", "standard")
	c.Assert(err, gc.IsNil)

	rq, err := snap.Rewrite(context.TODO(), q)
	c.Assert(err, gc.IsNil)
	c.Assert(rq.Terms(), gc.DeepEquals, []index.Term{
		{Field: "tag", Text: "apple"},
		{Field: "tag", Text: "apricot"},
	})

	freq, err := snap.DocFreq(context.TODO(), index.Term{Field: "tag", Text: "apricot"})
	c.Assert(err, gc.IsNil)
	c.Assert(freq, gc.Equals, uint64(2))

	freq, err = snap.DocFreq(context.TODO(), index.Term{Field: "tag", Text: "cherry"})
	c.Assert(err, gc.IsNil)
	c.Assert(freq, gc.Equals, uint64(0))
}

func (s *SuiteBase) indexNumbered(c *gc.C, numDocs int, contentFn func(int) string) {
	for i := 0; i < numDocs; i++ {
		doc := &index.Document{
			ID: fmt.Sprintf("doc-%d", i),
			Fields: []index.Field{
				{Name: "title", Value: fmt.Sprintf("doc with ID %d", i), Store: true},
				{Name: "content", Value: contentFn(i)},
			},
		}
		c.Assert(s.engine.Index(doc), gc.IsNil)
	}
}

func (s *SuiteBase) commit(c *gc.C) uint64 {
	version, err := s.engine.Commit()
	c.Assert(err, gc.IsNil)
	return version
}

func (s *SuiteBase) openSnapshot(c *gc.C) index.Snapshot {
	snap, err := s.engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)
	return snap
}

func (s *SuiteBase) search(c *gc.C, text string, n int, sortSpec sortspec.Spec) *index.TopDocs {
	q, err := s.engine.Parse(text, "standard")
	c.Assert(err, gc.IsNil)

	snap := s.openSnapshot(c)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	td, err := snap.Search(context.TODO(), q, n, sortSpec)
	c.Assert(err, gc.IsNil)
	return td
}

func docIDs(td *index.TopDocs) []string {
	var ids []string
	for _, sd := range td.ScoreDocs {
		ids = append(ids, sd.DocID)
	}
	return ids
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
