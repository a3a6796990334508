package memory

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	bleveindex "github.com/blevesearch/bleve_index_api"
	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
)

// maxExpansions caps the number of dictionary terms a single multi-term
// clause can expand to.
const maxExpansions = 1024

// rewriter reduces a parsed query to primitive term and phrase clauses by
// analyzing free text and expanding multi-term clauses against the term
// dictionary of a snapshot.
type rewriter struct {
	idx           bleve.Index
	maxExpansions int
}

func (rw *rewriter) rewrite(q query.Query) (query.Query, error) {
	if isNilQuery(q) {
		return q, nil
	}

	switch t := q.(type) {
	case *query.BooleanQuery:
		cp := *t
		var err error
		if cp.Must, err = rw.rewriteOptional(t.Must); err != nil {
			return nil, err
		}
		if cp.Should, err = rw.rewriteOptional(t.Should); err != nil {
			return nil, err
		}
		if cp.MustNot, err = rw.rewriteOptional(t.MustNot); err != nil {
			return nil, err
		}
		return &cp, nil
	case *query.ConjunctionQuery:
		cp := *t
		children, err := rw.rewriteAll(t.Conjuncts)
		if err != nil {
			return nil, err
		}
		cp.Conjuncts = children
		return &cp, nil
	case *query.DisjunctionQuery:
		cp := *t
		children, err := rw.rewriteAll(t.Disjuncts)
		if err != nil {
			return nil, err
		}
		cp.Disjuncts = children
		return &cp, nil
	case *query.MatchQuery:
		return rw.rewriteMatch(t)
	case *query.MatchPhraseQuery:
		return rw.rewriteMatchPhrase(t)
	case *query.PrefixQuery:
		field := fieldOrDefault(t.FieldVal)
		terms, err := rw.expand(field, t.Prefix, func(string) bool { return true })
		if err != nil {
			return nil, err
		}
		return withBoost(termsQuery(field, terms), t), nil
	case *query.WildcardQuery:
		re, err := regexp.Compile(wildcardToRegexp(t.Wildcard))
		if err != nil {
			return nil, xerrors.Errorf("wildcard %q (%v): %w", t.Wildcard, err, index.ErrBadQuery)
		}
		return rw.rewriteRegexp(fieldOrDefault(t.FieldVal), literalPrefix(t.Wildcard), re, t)
	case *query.RegexpQuery:
		re, err := regexp.Compile("^(?:" + t.Regexp + ")$")
		if err != nil {
			return nil, xerrors.Errorf("regexp %q (%v): %w", t.Regexp, err, index.ErrBadQuery)
		}
		return rw.rewriteRegexp(fieldOrDefault(t.FieldVal), "", re, t)
	case *query.FuzzyQuery:
		field := fieldOrDefault(t.FieldVal)
		terms, err := rw.expandFuzzy(field, t.Term, t.Fuzziness, t.Prefix)
		if err != nil {
			return nil, err
		}
		return withBoost(termsQuery(field, terms), t), nil
	}

	// Term, phrase, range and match-all/none clauses are already primitive.
	return q, nil
}

func (rw *rewriter) rewriteOptional(q query.Query) (query.Query, error) {
	if isNilQuery(q) {
		return q, nil
	}
	return rw.rewrite(q)
}

func (rw *rewriter) rewriteAll(list []query.Query) ([]query.Query, error) {
	out := make([]query.Query, 0, len(list))
	for _, q := range list {
		rq, err := rw.rewrite(q)
		if err != nil {
			return nil, err
		}
		out = append(out, rq)
	}
	return out, nil
}

func (rw *rewriter) rewriteMatch(q *query.MatchQuery) (query.Query, error) {
	field := fieldOrDefault(q.FieldVal)
	tokens, err := rw.analyze(field, q.Analyzer, q.Match)
	if err != nil {
		return nil, err
	}

	clauses := make([]query.Query, 0, len(tokens))
	for _, token := range tokens {
		if q.Fuzziness <= 0 {
			clauses = append(clauses, termQuery(field, token))
			continue
		}

		terms, err := rw.expandFuzzy(field, token, q.Fuzziness, q.Prefix)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, termsQuery(field, terms))
	}

	var out query.Query
	switch {
	case len(clauses) == 0:
		out = query.NewMatchNoneQuery()
	case len(clauses) == 1:
		out = clauses[0]
	case q.Operator == query.MatchQueryOperatorAnd:
		out = query.NewConjunctionQuery(clauses)
	default:
		out = query.NewDisjunctionQuery(clauses)
	}
	return withBoost(out, q), nil
}

func (rw *rewriter) rewriteMatchPhrase(q *query.MatchPhraseQuery) (query.Query, error) {
	field := fieldOrDefault(q.FieldVal)
	tokens, err := rw.analyze(field, q.Analyzer, q.MatchPhrase)
	if err != nil {
		return nil, err
	}

	var out query.Query
	switch len(tokens) {
	case 0:
		out = query.NewMatchNoneQuery()
	case 1:
		out = termQuery(field, tokens[0])
	default:
		out = query.NewPhraseQuery(tokens, field)
	}
	return withBoost(out, q), nil
}

func (rw *rewriter) rewriteRegexp(field, prefix string, re *regexp.Regexp, orig query.Query) (query.Query, error) {
	terms, err := rw.expand(field, prefix, re.MatchString)
	if err != nil {
		return nil, err
	}
	return withBoost(termsQuery(field, terms), orig), nil
}

// analyze runs text through the named analyzer or, if no analyzer is
// specified, through the analyzer the index mapping assigns to field.
func (rw *rewriter) analyze(field, analyzerName, text string) ([]string, error) {
	im := rw.idx.Mapping()
	if analyzerName == "" {
		analyzerName = im.AnalyzerNameForPath(field)
	}

	analyzer := im.AnalyzerNamed(analyzerName)
	if analyzer == nil {
		return nil, xerrors.Errorf("analyzer %q: %w", analyzerName, index.ErrUnknownAnalyzer)
	}

	var tokens []string
	for _, token := range analyzer.Analyze([]byte(text)) {
		tokens = append(tokens, string(token.Term))
	}
	return tokens, nil
}

func (rw *rewriter) expandFuzzy(field, term string, fuzziness, prefixLen int) ([]string, error) {
	prefix := runePrefix(term, prefixLen)
	return rw.expand(field, prefix, func(candidate string) bool {
		return editDistance(term, candidate, fuzziness) <= fuzziness
	})
}

// expand scans the dictionary of field, optionally restricted to terms
// starting with prefix, and returns the terms accepted by matchFn.
func (rw *rewriter) expand(field, prefix string, matchFn func(string) bool) ([]string, error) {
	var (
		dict bleveindex.FieldDict
		err  error
	)
	if prefix != "" {
		dict, err = rw.idx.FieldDictPrefix(field, []byte(prefix))
	} else {
		dict, err = rw.idx.FieldDict(field)
	}
	if err != nil {
		return nil, xerrors.Errorf("field dictionary %q: %w", field, err)
	}
	defer func() { _ = dict.Close() }()

	var terms []string
	for len(terms) < rw.maxExpansions {
		entry, err := dict.Next()
		if err != nil {
			return nil, xerrors.Errorf("field dictionary %q: %w", field, err)
		} else if entry == nil {
			break
		}

		if matchFn(entry.Term) {
			terms = append(terms, entry.Term)
		}
	}
	return terms, nil
}

func termQuery(field, term string) *query.TermQuery {
	tq := query.NewTermQuery(term)
	tq.SetField(field)
	return tq
}

// termsQuery returns a query matching any of the provided terms.
func termsQuery(field string, terms []string) query.Query {
	switch len(terms) {
	case 0:
		return query.NewMatchNoneQuery()
	case 1:
		return termQuery(field, terms[0])
	}

	clauses := make([]query.Query, len(terms))
	for i, term := range terms {
		clauses[i] = termQuery(field, term)
	}
	return query.NewDisjunctionQuery(clauses)
}

// withBoost copies the boost of src to dst.
func withBoost(dst, src query.Query) query.Query {
	sb, ok := src.(query.BoostableQuery)
	if !ok || sb.Boost() == 1 {
		return dst
	}
	if db, ok := dst.(query.BoostableQuery); ok {
		db.SetBoost(sb.Boost())
	}
	return dst
}

func wildcardToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}

// literalPrefix returns the part of a wildcard pattern that precedes its
// first wildcard character.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?"); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

func runePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// editDistance returns the Levenshtein distance between a and b. The
// computation stops early and returns maxDist+1 once every cell of a row
// exceeds maxDist.
func editDistance(a, b string, maxDist int) int {
	if diff := utf8.RuneCountInString(a) - utf8.RuneCountInString(b); diff > maxDist || -diff > maxDist {
		return maxDist + 1
	}

	ar, br := []rune(a), []rune(b)
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if cur[j] < rowMin {
				rowMin = cur[j]
			}
		}
		if rowMin > maxDist {
			return maxDist + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
