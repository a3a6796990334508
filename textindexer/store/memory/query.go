package memory

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
)

var errForeignQuery = xerrors.New("query was not produced by this engine")

// bleveQuery wraps a parsed bleve query so it can be passed around as an
// index.Query.
type bleveQuery struct {
	q query.Query
}

func unwrapQuery(q index.Query) (query.Query, error) {
	bq, ok := q.(*bleveQuery)
	if !ok || bq == nil || bq.q == nil {
		return nil, errForeignQuery
	}
	return bq.q, nil
}

// String renders the query in a Lucene-like notation.
func (bq *bleveQuery) String() string {
	return formatQuery(bq.q)
}

// Terms returns the distinct terms referenced by term and phrase clauses
// in the order they are first encountered.
func (bq *bleveQuery) Terms() []index.Term {
	var (
		terms []index.Term
		seen  = make(map[index.Term]struct{})
	)
	walkQuery(bq.q, func(q query.Query) {
		var found []index.Term
		switch t := q.(type) {
		case *query.TermQuery:
			found = append(found, index.Term{Field: fieldOrDefault(t.FieldVal), Text: t.Term})
		case *query.PhraseQuery:
			for _, text := range t.Terms {
				found = append(found, index.Term{Field: fieldOrDefault(t.Field), Text: text})
			}
		}

		for _, term := range found {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	})
	return terms
}

// applyAnalyzer sets the analyzer of every match and phrase clause whose
// field is reported as a text field by textField.
func applyAnalyzer(q query.Query, analyzer string, textField func(string) bool) {
	walkQuery(q, func(q query.Query) {
		switch t := q.(type) {
		case *query.MatchQuery:
			if t.Analyzer == "" && textField(fieldOrDefault(t.FieldVal)) {
				t.Analyzer = analyzer
			}
		case *query.MatchPhraseQuery:
			if t.Analyzer == "" && textField(fieldOrDefault(t.FieldVal)) {
				t.Analyzer = analyzer
			}
		}
	})
}

// validatePatterns compiles the pattern of every regexp and wildcard clause
// of q and returns the first compilation error.
func validatePatterns(q query.Query) error {
	var err error
	walkQuery(q, func(q query.Query) {
		if err != nil {
			return
		}
		switch t := q.(type) {
		case *query.RegexpQuery:
			_, err = regexp.Compile(t.Regexp)
		case *query.WildcardQuery:
			_, err = regexp.Compile(wildcardToRegexp(t.Wildcard))
		}
	})
	return err
}

// walkQuery invokes visitFn for q and, depth-first, for every clause nested
// inside it.
func walkQuery(q query.Query, visitFn func(query.Query)) {
	if isNilQuery(q) {
		return
	}

	visitFn(q)
	for _, child := range childQueries(q) {
		walkQuery(child, visitFn)
	}
}

func childQueries(q query.Query) []query.Query {
	switch t := q.(type) {
	case *query.BooleanQuery:
		var children []query.Query
		for _, c := range []query.Query{t.Must, t.Should, t.MustNot} {
			if !isNilQuery(c) {
				children = append(children, c)
			}
		}
		return children
	case *query.ConjunctionQuery:
		return t.Conjuncts
	case *query.DisjunctionQuery:
		return t.Disjuncts
	}
	return nil
}

func isNilQuery(q query.Query) bool {
	switch t := q.(type) {
	case nil:
		return true
	case *query.BooleanQuery:
		return t == nil
	case *query.ConjunctionQuery:
		return t == nil
	case *query.DisjunctionQuery:
		return t == nil
	}
	return false
}

func formatQuery(q query.Query) string {
	if isNilQuery(q) {
		return ""
	}

	var out string
	switch t := q.(type) {
	case *query.BooleanQuery:
		var clauses []string
		clauses = appendClauses(clauses, "+", t.Must)
		clauses = appendClauses(clauses, "", t.Should)
		clauses = appendClauses(clauses, "-", t.MustNot)
		out = strings.Join(clauses, " ")
	case *query.ConjunctionQuery:
		out = strings.Join(appendClauses(nil, "+", t), " ")
	case *query.DisjunctionQuery:
		out = strings.Join(appendClauses(nil, "", t), " ")
	case *query.MatchAllQuery:
		out = "*:*"
	case *query.MatchNoneQuery:
		out = "-*:*"
	case *query.TermQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + t.Term
	case *query.MatchQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + t.Match + fuzzySuffix(t.Fuzziness)
	case *query.MatchPhraseQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + strconv.Quote(t.MatchPhrase)
	case *query.PhraseQuery:
		out = fieldOrDefault(t.Field) + ":" + strconv.Quote(strings.Join(t.Terms, " "))
	case *query.PrefixQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + t.Prefix + "*"
	case *query.WildcardQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + t.Wildcard
	case *query.RegexpQuery:
		out = fieldOrDefault(t.FieldVal) + ":/" + t.Regexp + "/"
	case *query.FuzzyQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + t.Term + fuzzySuffix(t.Fuzziness)
	case *query.NumericRangeQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + formatRange(
			formatFloatBound(t.Min), formatFloatBound(t.Max),
			isInclusive(t.InclusiveMin, true), isInclusive(t.InclusiveMax, false),
		)
	case *query.TermRangeQuery:
		out = fieldOrDefault(t.FieldVal) + ":" + formatRange(
			formatStringBound(t.Min), formatStringBound(t.Max),
			isInclusive(t.InclusiveMin, true), isInclusive(t.InclusiveMax, false),
		)
	default:
		data, err := json.Marshal(q)
		if err != nil {
			out = fmt.Sprintf("%T", q)
		} else {
			out = string(data)
		}
	}

	if bq, ok := q.(query.BoostableQuery); ok && bq.Boost() != 1 {
		out += "^" + strconv.FormatFloat(bq.Boost(), 'g', -1, 64)
	}
	return out
}

// appendClauses formats the clauses of a conjunction or disjunction node
// with the provided occurrence prefix. Any other query is treated as a
// single clause.
func appendClauses(clauses []string, prefix string, q query.Query) []string {
	if isNilQuery(q) {
		return clauses
	}

	var children []query.Query
	switch t := q.(type) {
	case *query.ConjunctionQuery:
		children = t.Conjuncts
	case *query.DisjunctionQuery:
		children = t.Disjuncts
	default:
		children = []query.Query{q}
	}

	for _, child := range children {
		clause := formatQuery(child)
		switch child.(type) {
		case *query.BooleanQuery, *query.ConjunctionQuery, *query.DisjunctionQuery:
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, prefix+clause)
	}
	return clauses
}

func fuzzySuffix(fuzziness int) string {
	if fuzziness <= 0 {
		return ""
	}
	return "~" + strconv.Itoa(fuzziness)
}

func formatRange(lower, upper string, inclusiveLower, inclusiveUpper bool) string {
	lb, ub := "{", "}"
	if inclusiveLower {
		lb = "["
	}
	if inclusiveUpper {
		ub = "]"
	}
	return lb + lower + " TO " + upper + ub
}

func formatFloatBound(v *float64) string {
	if v == nil {
		return "*"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatStringBound(v string) string {
	if v == "" {
		return "*"
	}
	return v
}

func isInclusive(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
