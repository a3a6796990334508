package search

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/indexgate/indexgate/rows"
	"github.com/indexgate/indexgate/searcher"
	"github.com/indexgate/indexgate/sortspec"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(RenderTestSuite))

type RenderTestSuite struct{}

func (s *RenderTestSuite) TestExplainEnvelope(c *gc.C) {
	env := newExplainEnvelope(&searcher.ExplainResult{
		Query:     "title:ap*",
		Rewritten: "title:apple",
		Freqs:     map[string]uint64{"title:apple": 3},
	}, "2a")

	res := httptest.NewRecorder()
	c.Assert(render(res, &Request{}, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals,
		`{"q":"title:ap*","etag":"2a","rewritten_q":"title:apple","freqs":{"title:apple":3}}`,
	)
}

func (s *RenderTestSuite) TestExplainEnvelopeWithoutTerms(c *gc.C) {
	env := newExplainEnvelope(&searcher.ExplainResult{Query: "*:*", Rewritten: "*:*"}, "1")

	res := httptest.NewRecorder()
	c.Assert(render(res, &Request{}, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals, `{"q":"*:*","etag":"1","rewritten_q":"*:*","freqs":{}}`)
}

func (s *RenderTestSuite) TestSearchEnvelope(c *gc.C) {
	score := 1.5
	var fields rows.Fields
	fields.Add("tag", "a")
	fields.Add("tag", "b")

	req := &Request{Skip: 5, Limit: 10}
	env := newSearchEnvelope(&searcher.SearchResult{
		Query:          "_all:lorem",
		TotalHits:      17,
		SearchDuration: 12 * time.Millisecond,
		FetchDuration:  3*time.Millisecond + 900*time.Microsecond,
		Rows: []rows.Row{
			{ID: "a", Score: &score, Fields: &fields},
		},
	}, req, "2a")

	res := httptest.NewRecorder()
	c.Assert(render(res, req, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals,
		`{"q":"_all:lorem","etag":"2a","skip":5,"limit":10,"total_rows":17,`+
			`"search_duration":12,"fetch_duration":3,`+
			`"rows":[{"id":"a","score":1.5,"fields":{"tag":["a","b"]}}]}`,
	)
}

func (s *RenderTestSuite) TestSortedSearchEnvelope(c *gc.C) {
	req := &Request{Limit: 25, Sort: sortspec.Compile(`\price:float,name`)}
	env := newSearchEnvelope(&searcher.SearchResult{
		Query:     "_all:lorem",
		TotalHits: 1,
		Sort:      req.Sort,
		Rows: []rows.Row{
			{ID: "a", SortOrder: []interface{}{9.5, "x"}},
		},
	}, req, "2a")

	res := httptest.NewRecorder()
	c.Assert(render(res, req, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals,
		`{"q":"_all:lorem","etag":"2a","skip":0,"limit":25,"total_rows":1,`+
			`"search_duration":0,"fetch_duration":0,`+
			`"sort_order":[{"field":"price","reverse":true,"type":"float"},{"field":"name","reverse":false,"type":"string"}],`+
			`"rows":[{"id":"a","sort_order":[9.5,"x"]}]}`,
	)
}

func (s *RenderTestSuite) TestEmptySearchHasRows(c *gc.C) {
	req := &Request{Limit: 25}
	env := newSearchEnvelope(&searcher.SearchResult{Query: "_all:x"}, req, "1")

	res := httptest.NewRecorder()
	c.Assert(render(res, req, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Matches, `.*"rows":\[\]\}`)
}

func (s *RenderTestSuite) TestHeadersAndContentType(c *gc.C) {
	env := newExplainEnvelope(&searcher.ExplainResult{}, "2a")

	specs := []struct {
		req   *Request
		expCT string
	}{
		{req: &Request{}, expCT: "text/plain;charset=utf-8"},
		{req: &Request{ForceJSON: true}, expCT: "application/json"},
		{req: &Request{AcceptsJSON: true}, expCT: "application/json"},
	}

	var bodies []string
	for _, spec := range specs {
		res := httptest.NewRecorder()
		c.Assert(render(res, spec.req, env), gc.IsNil)
		c.Assert(res.Code, gc.Equals, http.StatusOK)
		c.Assert(res.Header().Get("Content-Type"), gc.Equals, spec.expCT)
		c.Assert(res.Header().Get("ETag"), gc.Equals, "2a")
		c.Assert(res.Header().Get("Cache-Control"), gc.Equals, "must-revalidate")
		bodies = append(bodies, res.Body.String())
	}

	// The body does not depend on the content type.
	c.Assert(bodies[1], gc.Equals, bodies[0])
	c.Assert(bodies[2], gc.Equals, bodies[0])
}

func (s *RenderTestSuite) TestJSONP(c *gc.C) {
	env := newExplainEnvelope(&searcher.ExplainResult{Query: "q", Rewritten: "q"}, "2a")

	res := httptest.NewRecorder()
	c.Assert(render(res, &Request{Callback: "handle"}, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals, `handle({"q":"q","etag":"2a","rewritten_q":"q","freqs":{}})`)
}

func (s *RenderTestSuite) TestDebugIsPrettyPrinted(c *gc.C) {
	env := newExplainEnvelope(&searcher.ExplainResult{Query: "q", Rewritten: "q"}, "2a")

	res := httptest.NewRecorder()
	c.Assert(render(res, &Request{Debug: true}, env), gc.IsNil)
	c.Assert(res.Body.String(), gc.Equals, "{\n  \"q\": \"q\",\n  \"etag\": \"2a\",\n  \"rewritten_q\": \"q\",\n  \"freqs\": {}\n}")
}

func (s *RenderTestSuite) TestNotModified(c *gc.C) {
	res := httptest.NewRecorder()
	NotModified(res, "2a")
	c.Assert(res.Code, gc.Equals, http.StatusNotModified)
	c.Assert(res.Header().Get("ETag"), gc.Equals, "2a")
	c.Assert(res.Header().Get("Cache-Control"), gc.Equals, "must-revalidate")
	c.Assert(res.Body.Len(), gc.Equals, 0)
}
