package search

import (
	"encoding/json"
	"net/http"

	"github.com/indexgate/indexgate/rows"
	"github.com/indexgate/indexgate/searcher"
	"github.com/indexgate/indexgate/sortspec"
)

const (
	jsonContentType = "application/json"
	textContentType = "text/plain;charset=utf-8"
)

// envelope is the response body. Exactly one of the embedded payloads is
// set, depending on whether the query was explained or executed.
type envelope struct {
	Q    string `json:"q"`
	ETag string `json:"etag"`

	*ExplainPayload
	*SearchPayload
}

// ExplainPayload holds the explain-mode part of a response.
type ExplainPayload struct {
	RewrittenQ string            `json:"rewritten_q"`
	Freqs      map[string]uint64 `json:"freqs"`
}

// SearchPayload holds the search-mode part of a response.
type SearchPayload struct {
	Skip           int                   `json:"skip"`
	Limit          int                   `json:"limit"`
	TotalRows      uint64                `json:"total_rows"`
	SearchDuration int64                 `json:"search_duration"`
	FetchDuration  int64                 `json:"fetch_duration"`
	SortOrder      []sortspec.Descriptor `json:"sort_order,omitempty"`
	Rows           []rows.Row            `json:"rows"`
}

func newExplainEnvelope(res *searcher.ExplainResult, etag string) *envelope {
	freqs := res.Freqs
	if freqs == nil {
		freqs = map[string]uint64{}
	}

	return &envelope{
		Q:    res.Query,
		ETag: etag,
		ExplainPayload: &ExplainPayload{
			RewrittenQ: res.Rewritten,
			Freqs:      freqs,
		},
	}
}

func newSearchEnvelope(res *searcher.SearchResult, req *Request, etag string) *envelope {
	matches := res.Rows
	if matches == nil {
		matches = []rows.Row{}
	}

	return &envelope{
		Q:    res.Query,
		ETag: etag,
		SearchPayload: &SearchPayload{
			Skip:           req.Skip,
			Limit:          req.Limit,
			TotalRows:      res.TotalHits,
			SearchDuration: res.SearchDuration.Milliseconds(),
			FetchDuration:  res.FetchDuration.Milliseconds(),
			SortOrder:      res.Sort.Descriptors(),
			Rows:           matches,
		},
	}
}

// setCachingHeaders sets the headers that allow clients to revalidate a
// response against the index version it was produced from.
func setCachingHeaders(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "must-revalidate")
}

// NotModified writes a 304 response for etag.
func NotModified(w http.ResponseWriter, etag string) {
	setCachingHeaders(w, etag)
	w.WriteHeader(http.StatusNotModified)
}

// contentType returns the media type for a response to req. The body is
// the same either way.
func contentType(req *Request) string {
	if req.ForceJSON || req.AcceptsJSON {
		return jsonContentType
	}
	return textContentType
}

// render serializes env and writes it as a successful response to req.
func render(w http.ResponseWriter, req *Request, env *envelope) error {
	var (
		body []byte
		err  error
	)
	if req.Debug {
		body, err = json.MarshalIndent(env, "", "  ")
	} else {
		body, err = json.Marshal(env)
	}
	if err != nil {
		return err
	}

	if req.Callback != "" {
		wrapped := make([]byte, 0, len(req.Callback)+len(body)+2)
		wrapped = append(wrapped, req.Callback...)
		wrapped = append(wrapped, '(')
		wrapped = append(wrapped, body...)
		wrapped = append(wrapped, ')')
		body = wrapped
	}

	setCachingHeaders(w, env.ETag)
	w.Header().Set("Content-Type", contentType(req))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

// renderMessage writes a plain-text response with the provided status.
func renderMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", textContentType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
