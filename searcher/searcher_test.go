package searcher

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/indexgate/indexgate/searcher/mocks"
	"github.com/indexgate/indexgate/sortspec"
	"github.com/indexgate/indexgate/textindexer/index"
	indexmocks "github.com/indexgate/indexgate/textindexer/index/mocks"
	"github.com/indexgate/indexgate/textindexer/store/memory"
	"github.com/juju/clock/testclock"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(ConfigTestSuite))
var _ = gc.Suite(new(ExecutorTestSuite))

func Test(t *testing.T) { gc.TestingT(t) }

type ConfigTestSuite struct{}

func (s *ConfigTestSuite) TestConfigValidation(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	cfg := Config{Parser: indexmocks.NewMockEngine(ctrl)}
	c.Assert(cfg.validate(), gc.IsNil)
	c.Assert(cfg.DocumentStore, gc.Not(gc.IsNil), gc.Commentf("default document store was not assigned"))
	c.Assert(cfg.Clock, gc.Not(gc.IsNil), gc.Commentf("default clock was not assigned"))
	c.Assert(cfg.Logger, gc.Not(gc.IsNil), gc.Commentf("default logger was not assigned"))

	cfg = Config{}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*query parser has not been provided.*")
}

type ExecutorTestSuite struct {
	ctrl   *gomock.Controller
	parser *indexmocks.MockEngine
	snap   *indexmocks.MockSnapshot
	store  *mocks.MockDocumentStore
	exec   *Executor
}

func (s *ExecutorTestSuite) SetUpTest(c *gc.C) {
	s.ctrl = gomock.NewController(c)
	s.parser = indexmocks.NewMockEngine(s.ctrl)
	s.snap = indexmocks.NewMockSnapshot(s.ctrl)
	s.store = mocks.NewMockDocumentStore(s.ctrl)

	exec, err := NewExecutor(Config{
		Parser:        s.parser,
		DocumentStore: s.store,
		Clock:         testclock.NewClock(time.Now()),
	})
	c.Assert(err, gc.IsNil)
	s.exec = exec
}

func (s *ExecutorTestSuite) TearDownTest(c *gc.C) {
	s.ctrl.Finish()
}

func (s *ExecutorTestSuite) TestExplain(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("title:ap*")
	rewritten := indexmocks.NewMockQuery(s.ctrl)
	rewritten.EXPECT().String().Return("title:apple title:apricot")
	rewritten.EXPECT().Terms().Return([]index.Term{
		{Field: "title", Text: "apple"},
		{Field: "title", Text: "apricot"},
	})

	s.parser.EXPECT().Parse("title:ap*", "standard").Return(parsed, nil)
	s.snap.EXPECT().Rewrite(gomock.Any(), parsed).Return(rewritten, nil)
	s.snap.EXPECT().DocFreq(gomock.Any(), index.Term{Field: "title", Text: "apple"}).Return(uint64(3), nil)
	s.snap.EXPECT().DocFreq(gomock.Any(), index.Term{Field: "title", Text: "apricot"}).Return(uint64(1), nil)

	res, err := s.exec.Explain(context.TODO(), s.snap, Request{Query: "title:ap*", Analyzer: "standard"})
	c.Assert(err, gc.IsNil)
	c.Assert(res, gc.DeepEquals, &ExplainResult{
		Query:     "title:ap*",
		Rewritten: "title:apple title:apricot",
		Freqs: map[string]uint64{
			"title:apple":   3,
			"title:apricot": 1,
		},
	})
}

func (s *ExecutorTestSuite) TestExplainBadQuery(c *gc.C) {
	s.parser.EXPECT().Parse("title:>x", "standard").Return(nil, xerrors.Errorf("parse: %w", index.ErrBadQuery))

	_, err := s.exec.Explain(context.TODO(), s.snap, Request{Query: "title:>x", Analyzer: "standard"})
	c.Assert(IsClientError(err), gc.Equals, true)
}

func (s *ExecutorTestSuite) TestSearch(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("_all:lorem")

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, 3, sortspec.Spec(nil)).Return(&index.TopDocs{
		TotalHits: 42,
		ScoreDocs: []index.ScoreDoc{
			{DocID: "a", Score: 3},
			{DocID: "b", Score: 2},
			{DocID: "c", Score: 1},
		},
	}, nil)
	s.snap.EXPECT().Document(gomock.Any(), "b").Return([]index.StoredField{
		{Name: index.IDField, Value: "b"},
		{Name: "title", Value: "B"},
	}, nil)
	s.snap.EXPECT().Document(gomock.Any(), "c").Return([]index.StoredField{
		{Name: index.IDField, Value: "c"},
	}, nil)

	res, err := s.exec.Search(context.TODO(), s.snap, Request{
		Query:    "lorem",
		Analyzer: "standard",
		Skip:     1,
		Limit:    2,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Query, gc.Equals, "_all:lorem")
	c.Assert(res.TotalHits, gc.Equals, uint64(42))
	c.Assert(res.Rows, gc.HasLen, 2)
	c.Assert(res.Rows[0].ID, gc.Equals, "b")
	c.Assert(*res.Rows[0].Score, gc.Equals, 2.0)
	c.Assert(res.Rows[0].Fields.Names(), gc.DeepEquals, []string{"title"})
	c.Assert(res.Rows[1].ID, gc.Equals, "c")
	c.Assert(res.Rows[1].Fields, gc.IsNil)
}

func (s *ExecutorTestSuite) TestSortedSearch(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("_all:lorem")
	sortSpec := sortspec.Compile(`\price:float`)

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, 25, sortSpec).Return(&index.TopDocs{
		TotalHits:  1,
		ScoreDocs:  []index.ScoreDoc{{DocID: "a", Score: math.NaN(), SortValues: []interface{}{9.5}}},
		SortFields: sortSpec,
	}, nil)
	s.snap.EXPECT().Document(gomock.Any(), "a").Return([]index.StoredField{{Name: index.IDField, Value: "a"}}, nil)

	res, err := s.exec.Search(context.TODO(), s.snap, Request{
		Query:    "lorem",
		Analyzer: "standard",
		Limit:    25,
		Sort:     sortSpec,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Sort, gc.DeepEquals, sortSpec)
	c.Assert(res.Rows, gc.HasLen, 1)
	c.Assert(res.Rows[0].Score, gc.IsNil)
	c.Assert(res.Rows[0].SortOrder, gc.DeepEquals, []interface{}{9.5})
}

func (s *ExecutorTestSuite) TestSearchWithIncludeDocs(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("_all:lorem")

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, 10, gomock.Any()).Return(&index.TopDocs{
		TotalHits: 1,
		ScoreDocs: []index.ScoreDoc{{DocID: "a", Score: 1}},
	}, nil)
	s.snap.EXPECT().Document(gomock.Any(), "a").Return([]index.StoredField{{Name: index.IDField, Value: "a"}}, nil)
	s.store.EXPECT().Fetch(gomock.Any(), []string{"a"}).Return([]json.RawMessage{json.RawMessage(`{"x":1}`)}, nil)

	res, err := s.exec.Search(context.TODO(), s.snap, Request{
		Query:       "lorem",
		Analyzer:    "standard",
		Limit:       10,
		IncludeDocs: true,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(string(res.Rows[0].Doc), gc.Equals, `{"x":1}`)
}

func (s *ExecutorTestSuite) TestSearchWithIncludeDocsAndNoopStore(c *gc.C) {
	exec, err := NewExecutor(Config{Parser: s.parser})
	c.Assert(err, gc.IsNil)

	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("_all:lorem")

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, 10, gomock.Any()).Return(&index.TopDocs{
		TotalHits: 1,
		ScoreDocs: []index.ScoreDoc{{DocID: "a", Score: 1}},
	}, nil)
	s.snap.EXPECT().Document(gomock.Any(), "a").Return([]index.StoredField{{Name: index.IDField, Value: "a"}}, nil)

	res, err := exec.Search(context.TODO(), s.snap, Request{
		Query:       "lorem",
		Analyzer:    "standard",
		Limit:       10,
		IncludeDocs: true,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Rows[0].Doc, gc.IsNil)
}

func (s *ExecutorTestSuite) TestSearchEngineError(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	expErr := xerrors.New("index corrupted")

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, 10, gomock.Any()).Return(nil, expErr)

	_, err := s.exec.Search(context.TODO(), s.snap, Request{Query: "lorem", Analyzer: "standard", Limit: 10})
	c.Assert(xerrors.Is(err, expErr), gc.Equals, true)
	c.Assert(IsClientError(err), gc.Equals, false)
}

func (s *ExecutorTestSuite) TestSearchSizeSaturates(c *gc.C) {
	parsed := indexmocks.NewMockQuery(s.ctrl)
	parsed.EXPECT().String().Return("_all:lorem")

	s.parser.EXPECT().Parse("lorem", "standard").Return(parsed, nil)
	s.snap.EXPECT().Search(gomock.Any(), parsed, math.MaxInt, sortspec.Spec(nil)).Return(&index.TopDocs{
		TotalHits: 1,
		ScoreDocs: []index.ScoreDoc{{DocID: "a", Score: 1}},
	}, nil)

	res, err := s.exec.Search(context.TODO(), s.snap, Request{
		Query:    "lorem",
		Analyzer: "standard",
		Skip:     1,
		Limit:    math.MaxInt,
	})
	c.Assert(err, gc.IsNil)
	c.Assert(res.Rows, gc.HasLen, 0)
}

func (s *ExecutorTestSuite) TestTopN(c *gc.C) {
	specs := []struct {
		skip, limit int
		exp         int
	}{
		{skip: 0, limit: 25, exp: 25},
		{skip: 10, limit: 5, exp: 15},
		{skip: 1, limit: math.MaxInt, exp: math.MaxInt},
		{skip: math.MaxInt, limit: math.MaxInt, exp: math.MaxInt},
		{skip: math.MaxInt, limit: 0, exp: math.MaxInt},
	}

	for i, spec := range specs {
		c.Assert(topN(spec.skip, spec.limit), gc.Equals, spec.exp, gc.Commentf("spec %d", i))
	}
}

func (s *ExecutorTestSuite) TestSearchRejectsInvalidRegexp(c *gc.C) {
	engine, err := memory.NewInMemoryBleveEngine()
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(engine.Close(), gc.IsNil) }()

	snap, err := engine.OpenSnapshot(context.TODO())
	c.Assert(err, gc.IsNil)
	defer func() { c.Assert(snap.Close(), gc.IsNil) }()

	exec, err := NewExecutor(Config{Parser: engine})
	c.Assert(err, gc.IsNil)

	_, err = exec.Search(context.TODO(), snap, Request{Query: "tag:/[/", Analyzer: "standard", Limit: 10})
	c.Assert(xerrors.Is(err, index.ErrBadQuery), gc.Equals, true, gc.Commentf("search: %v", err))

	_, err = exec.Explain(context.TODO(), snap, Request{Query: "tag:/[/", Analyzer: "standard"})
	c.Assert(xerrors.Is(err, index.ErrBadQuery), gc.Equals, true, gc.Commentf("explain: %v", err))
}

func (s *ExecutorTestSuite) TestUnknownAnalyzer(c *gc.C) {
	s.parser.EXPECT().Parse("lorem", "klingon").Return(nil, index.ErrUnknownAnalyzer)

	_, err := s.exec.Search(context.TODO(), s.snap, Request{Query: "lorem", Analyzer: "klingon", Limit: 10})
	c.Assert(IsClientError(err), gc.Equals, true)
}
