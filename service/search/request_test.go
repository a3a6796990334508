package search

import (
	"net/http"
	"net/url"

	"github.com/indexgate/indexgate/sortspec"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(RequestTestSuite))

type RequestTestSuite struct{}

func (s *RequestTestSuite) TestDefaults(c *gc.C) {
	req, err := parseRequest(url.Values{"q": {"lorem"}}, http.Header{})
	c.Assert(err, gc.IsNil)
	c.Assert(req, gc.DeepEquals, &Request{
		Query:    "lorem",
		Analyzer: "standard",
		Limit:    25,
	})
}

func (s *RequestTestSuite) TestMissingQuery(c *gc.C) {
	for _, params := range []url.Values{{}, {"q": {""}}, {"limit": {"5"}}} {
		_, err := parseRequest(params, http.Header{})
		c.Assert(err, gc.Equals, errMissingQuery)
		c.Assert(err, gc.ErrorMatches, "Missing q attribute.")
	}
}

func (s *RequestTestSuite) TestBooleanParameters(c *gc.C) {
	specs := []struct {
		raw string
		exp bool
	}{
		{raw: "debug", exp: true},
		{raw: "debug=", exp: true},
		{raw: "debug=true", exp: true},
		{raw: "debug=TRUE", exp: true},
		{raw: "debug=1", exp: true},
		{raw: "debug=yes", exp: true},
		{raw: "debug=On", exp: true},
		{raw: "debug=false", exp: false},
		{raw: "debug=0", exp: false},
		{raw: "debug=nope", exp: false},
		{raw: "", exp: false},
	}

	for _, spec := range specs {
		params, err := url.ParseQuery("q=x&" + spec.raw)
		c.Assert(err, gc.IsNil)

		req, err := parseRequest(params, http.Header{})
		c.Assert(err, gc.IsNil)
		c.Assert(req.Debug, gc.Equals, spec.exp, gc.Commentf("%q", spec.raw))
	}
}

func (s *RequestTestSuite) TestFlags(c *gc.C) {
	params, err := url.ParseQuery("q=x&rewrite_query=true&include_docs=1&force_json=yes&stale=ok&analyzer=simple&callback=cb")
	c.Assert(err, gc.IsNil)

	req, err := parseRequest(params, http.Header{})
	c.Assert(err, gc.IsNil)
	c.Assert(req.RewriteQuery, gc.Equals, true)
	c.Assert(req.IncludeDocs, gc.Equals, true)
	c.Assert(req.ForceJSON, gc.Equals, true)
	c.Assert(req.Stale, gc.Equals, true)
	c.Assert(req.Analyzer, gc.Equals, "simple")
	c.Assert(req.Callback, gc.Equals, "cb")
}

func (s *RequestTestSuite) TestStaleRequiresOK(c *gc.C) {
	for _, v := range []string{"true", "1", "OK", "update_after"} {
		req, err := parseRequest(url.Values{"q": {"x"}, "stale": {v}}, http.Header{})
		c.Assert(err, gc.IsNil)
		c.Assert(req.Stale, gc.Equals, false, gc.Commentf("%q", v))
	}
}

func (s *RequestTestSuite) TestPaging(c *gc.C) {
	req, err := parseRequest(url.Values{"q": {"x"}, "limit": {"10"}, "skip": {"5"}}, http.Header{})
	c.Assert(err, gc.IsNil)
	c.Assert(req.Limit, gc.Equals, 10)
	c.Assert(req.Skip, gc.Equals, 5)

	req, err = parseRequest(url.Values{"q": {"x"}, "limit": {"0"}}, http.Header{})
	c.Assert(err, gc.IsNil)
	c.Assert(req.Limit, gc.Equals, 0)

	for _, v := range []string{"ten", "-1", "1.5"} {
		_, err = parseRequest(url.Values{"q": {"x"}, "limit": {v}}, http.Header{})
		c.Assert(err, gc.Equals, errInvalidLimit)

		_, err = parseRequest(url.Values{"q": {"x"}, "skip": {v}}, http.Header{})
		c.Assert(err, gc.Equals, errInvalidSkip)
	}
}

func (s *RequestTestSuite) TestSort(c *gc.C) {
	req, err := parseRequest(url.Values{"q": {"x"}, "sort": {`\price:float,name`}}, http.Header{})
	c.Assert(err, gc.IsNil)
	c.Assert(req.Sort, gc.DeepEquals, sortspec.Spec{
		{Field: "price", Type: sortspec.Float, Reverse: true},
		{Field: "name", Type: sortspec.String},
	})
}

func (s *RequestTestSuite) TestHeaders(c *gc.C) {
	hdr := http.Header{}
	hdr.Set("If-None-Match", `"2a", W/"ff"`)
	hdr.Set("Accept", "text/html, application/json;q=0.9")

	req, err := parseRequest(url.Values{"q": {"x"}}, hdr)
	c.Assert(err, gc.IsNil)
	c.Assert(req.IfNoneMatch, gc.DeepEquals, []string{"2a", "ff"})
	c.Assert(req.MatchesETag("2a"), gc.Equals, true)
	c.Assert(req.MatchesETag("ff"), gc.Equals, true)
	c.Assert(req.MatchesETag("2b"), gc.Equals, false)
	c.Assert(req.AcceptsJSON, gc.Equals, true)
}
