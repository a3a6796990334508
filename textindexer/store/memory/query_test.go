package memory

import (
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/indexgate/indexgate/textindexer/index"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(QueryTestSuite))

type QueryTestSuite struct{}

func (s *QueryTestSuite) TestFormatQuery(c *gc.C) {
	boosted := termQuery("title", "go")
	boosted.SetBoost(2.5)

	lo, hi := 1.0, 10.0
	specs := []struct {
		descr string
		q     query.Query
		exp   string
	}{
		{descr: "term in default field", q: termQuery("", "lorem"), exp: "_all:lorem"},
		{descr: "boosted term", q: boosted, exp: "title:go^2.5"},
		{descr: "phrase", q: query.NewPhraseQuery([]string{"a", "b"}, "body"), exp: `body:"a b"`},
		{descr: "match all", q: query.NewMatchAllQuery(), exp: "*:*"},
		{descr: "match none", q: query.NewMatchNoneQuery(), exp: "-*:*"},
		{
			descr: "numeric range",
			q: func() query.Query {
				q := query.NewNumericRangeQuery(&lo, &hi)
				q.SetField("price")
				return q
			}(),
			exp: "price:[1 TO 10}",
		},
		{
			descr: "nested disjunction",
			q: query.NewConjunctionQuery([]query.Query{
				termQuery("a", "x"),
				query.NewDisjunctionQuery([]query.Query{termQuery("b", "y"), termQuery("b", "z")}),
			}),
			exp: "+a:x +(b:y b:z)",
		},
		{
			descr: "boolean",
			q: query.NewBooleanQuery(
				[]query.Query{termQuery("a", "x")},
				[]query.Query{termQuery("b", "y")},
				[]query.Query{termQuery("c", "z")},
			),
			exp: "+a:x b:y -c:z",
		},
	}

	for specIndex, spec := range specs {
		c.Logf("[spec %d] %s", specIndex, spec.descr)
		c.Assert(formatQuery(spec.q), gc.Equals, spec.exp)
	}
}

func (s *QueryTestSuite) TestTermsAreDistinct(c *gc.C) {
	q := &bleveQuery{q: query.NewDisjunctionQuery([]query.Query{
		termQuery("title", "go"),
		query.NewPhraseQuery([]string{"go", "search"}, "title"),
		termQuery("", "go"),
	})}

	c.Assert(q.Terms(), gc.DeepEquals, []index.Term{
		{Field: "title", Text: "go"},
		{Field: "title", Text: "search"},
		{Field: index.DefaultField, Text: "go"},
	})
}

func (s *QueryTestSuite) TestEditDistance(c *gc.C) {
	specs := []struct {
		a, b    string
		maxDist int
		exp     int
	}{
		{a: "fox", b: "fox", maxDist: 2, exp: 0},
		{a: "fix", b: "fox", maxDist: 2, exp: 1},
		{a: "kitten", b: "sitting", maxDist: 3, exp: 3},
		{a: "kitten", b: "sitting", maxDist: 1, exp: 2},
		{a: "a", b: "abcd", maxDist: 1, exp: 2},
	}

	for _, spec := range specs {
		c.Assert(editDistance(spec.a, spec.b, spec.maxDist), gc.Equals, spec.exp, gc.Commentf("%s/%s", spec.a, spec.b))
	}
}

func (s *QueryTestSuite) TestWildcardToRegexp(c *gc.C) {
	c.Assert(wildcardToRegexp("a*b?.c"), gc.Equals, `^a.*b.\.c$`)
	c.Assert(literalPrefix("abc*d"), gc.Equals, "abc")
	c.Assert(literalPrefix("abc"), gc.Equals, "abc")
	c.Assert(runePrefix("héllo", 2), gc.Equals, "hé")
	c.Assert(runePrefix("hi", 5), gc.Equals, "hi")
}
