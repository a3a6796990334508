package memory

import (
	"context"
	"math"
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/indexgate/indexgate/textindexer/index/indextest"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(InMemoryBleveTestSuite))

func Test(t *testing.T) { gc.TestingT(t) }

type InMemoryBleveTestSuite struct {
	indextest.SuiteBase
	engine *InMemoryBleveEngine
}

func (s *InMemoryBleveTestSuite) SetUpTest(c *gc.C) {
	engine, err := NewInMemoryBleveEngine()
	c.Assert(err, gc.IsNil)
	s.SetEngine(engine)
	s.engine = engine
}

func (s *InMemoryBleveTestSuite) TearDownTest(c *gc.C) {
	c.Assert(s.engine.Close(), gc.IsNil)
}

func (s *InMemoryBleveTestSuite) TestSnapshotOutlivesCommit(c *gc.C) {
	c.Assert(s.engine.Index(&index.Document{ID: "a", Fields: []index.Field{{Name: "content", Value: "lorem"}}}), gc.IsNil)
	_, err := s.engine.Commit()
	c.Assert(err, gc.IsNil)

	snap, err := s.engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)

	c.Assert(s.engine.Index(&index.Document{ID: "b", Fields: []index.Field{{Name: "content", Value: "lorem"}}}), gc.IsNil)
	_, err = s.engine.Commit()
	c.Assert(err, gc.IsNil)

	// The engine dropped its reference to the old snapshot but ours keeps
	// it open.
	q, err := s.engine.Parse("lorem", "standard")
	c.Assert(err, gc.IsNil)
	td, err := snap.Search(context.TODO(), q, 10, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(td.TotalHits, gc.Equals, uint64(1))

	c.Assert(snap.Close(), gc.IsNil)

	// Closing more times than the snapshot was opened is an error.
	err = snap.Close()
	c.Assert(xerrors.Is(err, index.ErrClosed), gc.Equals, true)
}

func (s *InMemoryBleveTestSuite) TestClosedEngine(c *gc.C) {
	engine, err := NewInMemoryBleveEngine()
	c.Assert(err, gc.IsNil)
	c.Assert(engine.Close(), gc.IsNil)
	c.Assert(engine.Close(), gc.IsNil)

	_, err = engine.OpenSnapshot(context.TODO())
	c.Assert(xerrors.Is(err, index.ErrClosed), gc.Equals, true)

	err = engine.Index(&index.Document{ID: "a"})
	c.Assert(xerrors.Is(err, index.ErrClosed), gc.Equals, true)

	_, err = engine.Commit()
	c.Assert(xerrors.Is(err, index.ErrClosed), gc.Equals, true)
}

func (s *InMemoryBleveTestSuite) TestForeignQuery(c *gc.C) {
	snap, err := s.engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	_, err = snap.Search(context.TODO(), nil, 10, nil)
	c.Assert(xerrors.Is(err, errForeignQuery), gc.Equals, true)
}

func (s *InMemoryBleveTestSuite) TestParseRejectsInvalidRegexp(c *gc.C) {
	for _, text := range []string{`tag:/[/`, `/a(b/`, `+title:ok -tag:/x{2,1}/`} {
		_, err := s.engine.Parse(text, "standard")
		c.Assert(xerrors.Is(err, index.ErrBadQuery), gc.Equals, true, gc.Commentf("query %q: %v", text, err))
	}

	q, err := s.engine.Parse(`tag:/ap.*/ title:w?rd*`, "standard")
	c.Assert(err, gc.IsNil)
	c.Assert(q, gc.Not(gc.IsNil))
}

func (s *InMemoryBleveTestSuite) TestSearchSizeIsBoundedByDocumentCount(c *gc.C) {
	c.Assert(s.engine.Index(&index.Document{ID: "a", Fields: []index.Field{{Name: "content", Value: "lorem"}}}), gc.IsNil)
	_, err := s.engine.Commit()
	c.Assert(err, gc.IsNil)

	snap, err := s.engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	q, err := s.engine.Parse("lorem", "standard")
	c.Assert(err, gc.IsNil)
	td, err := snap.Search(context.TODO(), q, math.MaxInt, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(td.TotalHits, gc.Equals, uint64(1))
	c.Assert(td.ScoreDocs, gc.HasLen, 1)
}

func (s *InMemoryBleveTestSuite) TestParseAppliesAnalyzerToTextFields(c *gc.C) {
	c.Assert(s.engine.Index(&index.Document{ID: "a", Fields: []index.Field{
		{Name: "tag", Value: "Go", Type: index.FieldKeyword},
		{Name: "content", Value: "text"},
	}}), gc.IsNil)

	q, err := s.engine.Parse("+tag:Go content:text", "simple")
	c.Assert(err, gc.IsNil)

	analyzers := make(map[string]string)
	walkQuery(q.(*bleveQuery).q, func(q query.Query) {
		if mq, ok := q.(*query.MatchQuery); ok {
			analyzers[mq.FieldVal] = mq.Analyzer
		}
	})
	c.Assert(analyzers, gc.DeepEquals, map[string]string{
		"tag":     "",
		"content": "simple",
	})
}

func (s *InMemoryBleveTestSuite) TestRewriteMatchAndPhrase(c *gc.C) {
	c.Assert(s.engine.Index(&index.Document{ID: "a", Fields: []index.Field{
		{Name: "content", Value: "the quick brown fox"},
	}}), gc.IsNil)
	_, err := s.engine.Commit()
	c.Assert(err, gc.IsNil)

	snap, err := s.engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	specs := []struct {
		in  string
		exp string
	}{
		{in: "content:Quick", exp: "content:quick"},
		{in: `content:"Quick Brown"`, exp: `content:"quick brown"`},
		{in: "+content:quick -content:slow", exp: "+content:quick -content:slow"},
		{in: "content:qu*", exp: "content:quick"},
		{in: "content:/br.wn/", exp: "content:brown"},
		{in: "content:fix~1", exp: "content:fox"},
		{in: "content:zz*", exp: "-*:*"},
	}

	for specIndex, spec := range specs {
		c.Logf("[spec %d] %s", specIndex, spec.in)
		q, err := s.engine.Parse(spec.in, "standard")
		c.Assert(err, gc.IsNil)

		rq, err := snap.Rewrite(context.TODO(), q)
		c.Assert(err, gc.IsNil)
		c.Assert(rq.String(), gc.Equals, spec.exp)
	}
}
