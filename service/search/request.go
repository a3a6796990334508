package search

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/indexgate/indexgate/sortspec"
)

const (
	defaultAnalyzer = "standard"
	defaultLimit    = 25
)

// clientError is reported for requests that cannot be served because of
// invalid input. Its text is returned verbatim to the client.
type clientError string

func (e clientError) Error() string { return string(e) }

const (
	errMissingQuery    clientError = "Missing q attribute."
	errInvalidLimit    clientError = "Invalid limit parameter."
	errInvalidSkip     clientError = "Invalid skip parameter."
	errBadQuery        clientError = "Bad query syntax."
	errUnknownAnalyzer clientError = "Unknown analyzer."
)

// Request holds the normalized parameters of a search request.
type Request struct {
	Query        string
	Analyzer     string
	Debug        bool
	RewriteQuery bool
	IncludeDocs  bool
	ForceJSON    bool
	Stale        bool
	Limit        int
	Skip         int
	Sort         sortspec.Spec
	Callback     string

	// The validators listed in the If-None-Match header.
	IfNoneMatch []string

	// True if the Accept header lists application/json.
	AcceptsJSON bool
}

// parseRequest extracts a Request from the query parameters and headers of
// an incoming HTTP request.
func parseRequest(params url.Values, hdr http.Header) (*Request, error) {
	req := &Request{
		Query:        params.Get("q"),
		Analyzer:     params.Get("analyzer"),
		Debug:        boolParam(params, "debug"),
		RewriteQuery: boolParam(params, "rewrite_query"),
		IncludeDocs:  boolParam(params, "include_docs"),
		ForceJSON:    boolParam(params, "force_json"),
		Stale:        params.Get("stale") == "ok",
		Limit:        defaultLimit,
		Sort:         sortspec.Compile(params.Get("sort")),
		Callback:     params.Get("callback"),
		IfNoneMatch:  parseETagList(hdr.Get("If-None-Match")),
		AcceptsJSON:  strings.Contains(hdr.Get("Accept"), "application/json"),
	}

	if req.Query == "" {
		return nil, errMissingQuery
	}
	if req.Analyzer == "" {
		req.Analyzer = defaultAnalyzer
	}

	var err error
	if req.Limit, err = intParam(params, "limit", defaultLimit); err != nil {
		return nil, errInvalidLimit
	}
	if req.Skip, err = intParam(params, "skip", 0); err != nil {
		return nil, errInvalidSkip
	}

	return req, nil
}

// MatchesETag returns true if etag is listed in the If-None-Match header
// of the request.
func (r *Request) MatchesETag(etag string) bool {
	for _, candidate := range r.IfNoneMatch {
		if candidate == etag {
			return true
		}
	}
	return false
}

// boolParam returns true if the named parameter is present with an empty
// value or with one of the values true, 1, yes or on.
func boolParam(params url.Values, name string) bool {
	values, found := params[name]
	if !found {
		return false
	}

	var v string
	if len(values) != 0 {
		v = values[0]
	}
	switch strings.ToLower(v) {
	case "", "true", "1", "yes", "on":
		return true
	}
	return false
}

// intParam parses the named parameter as a non-negative integer. If the
// parameter is absent or empty, def is returned.
func intParam(params url.Values, name string, def int) (int, error) {
	v := params.Get(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	} else if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// parseETagList splits an If-None-Match header into its validators with
// surrounding quotes and weakness markers removed.
func parseETagList(hdr string) []string {
	if hdr == "" {
		return nil
	}

	var etags []string
	for _, tok := range strings.Split(hdr, ",") {
		tok = strings.TrimSpace(tok)
		tok = strings.TrimPrefix(tok, "W/")
		tok = strings.Trim(tok, `"`)
		if tok != "" {
			etags = append(etags, tok)
		}
	}
	return etags
}
