package models

import (
	"fmt"
	"strings"

	"apidiff/internal/literal"
)

// Param is one decoded query parameter. Order follows the query string.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Header is one request or response header. Order follows the source.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RequestRecord is one decoded invocation from a traffic export. Records are
// read-only after extraction; (Method, Path) is the matching identity.
type RequestRecord struct {
	Method  string
	FullURL string
	Path    string
	Query   []Param
	Headers []Header

	// Body holds the decoded tree when the transmitted body was valid
	// JSON, RawBody the original text otherwise. At most one is set.
	Body    *literal.Value
	RawBody string

	// Response is attached by replay, HAR import or a collected run.
	Response *ResponseRecord
}

// HasBody reports whether the record carries any request body at all.
func (r *RequestRecord) HasBody() bool {
	return r.Body != nil || r.RawBody != ""
}

// HeaderValue returns the first header with the given name,
// case-insensitively.
func (r *RequestRecord) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}

	return "", false
}

// ResponseRecord is the replay collaborator's answer for one request. A
// non-empty Err means the response side of that pair is unavailable; the
// request-side comparison still proceeds.
type ResponseRecord struct {
	Status    int
	Headers   []Header
	Body      *literal.Value
	RawBody   string
	LatencyMs int64
	Err       string
}

func (r *ResponseRecord) HasBody() bool {
	return r != nil && (r.Body != nil || r.RawBody != "")
}

// Warning records one invocation that could not be decoded. Extraction is
// never aborted by a bad invocation.
type Warning struct {
	Offset int
	Err    error
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %v", w.Offset, w.Err)
}

// LatencyStats summarizes replay latencies in milliseconds.
type LatencyStats struct {
	P50 int64 `json:"p50"`
	P90 int64 `json:"p90"`
	P95 int64 `json:"p95"`
	P99 int64 `json:"p99"`
	Min int64 `json:"min"`
	Max int64 `json:"max"`
	Avg int64 `json:"avg"`
}
