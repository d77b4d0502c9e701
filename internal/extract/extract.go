// Package extract scans a traffic export for network-call invocations and
// turns each one it can decode into a RequestRecord. Invocations that fail to
// decode are reported as warnings and skipped; one bad call never aborts the
// rest of the export.
package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// DefaultCallMarker is the token browsers emit in "copy as fetch" exports.
const DefaultCallMarker = "fetch"

type Result struct {
	Records  []models.RequestRecord
	Warnings []models.Warning
}

// Extract decodes an export using the default call marker.
func Extract(content string) Result {
	return ExtractWithMarker(content, DefaultCallMarker)
}

// ExtractWithMarker scans for `marker(` occurrences and decodes the URL and
// options arguments of each. The marker must stand alone: "prefetch(" does
// not introduce an invocation for marker "fetch".
func ExtractWithMarker(content, marker string) Result {
	var res Result

	if marker == "" {
		marker = DefaultCallMarker
	}

	pos := 0
	for pos < len(content) {
		rel := strings.Index(content[pos:], marker)
		if rel < 0 {
			break
		}
		start := pos + rel

		if !isInvocationStart(content, start, marker) {
			pos = start + len(marker)
			continue
		}

		p := literal.NewParser(content)
		p.SetPos(start + len(marker))
		p.SkipSpace()
		p.SetPos(p.Pos() + 1) // consume (

		record, err := decodeInvocation(p)
		if err != nil {
			res.Warnings = append(res.Warnings, models.Warning{Offset: start, Err: err})
			pos = start + len(marker)
			continue
		}

		res.Records = append(res.Records, record)
		pos = p.Pos()
	}

	return res
}

// isInvocationStart checks that the marker is not part of a longer
// identifier and is followed by an opening parenthesis.
func isInvocationStart(content string, start int, marker string) bool {
	if start > 0 && isIdentByte(content[start-1]) {
		return false
	}

	p := literal.NewParser(content)
	p.SetPos(start + len(marker))
	p.SkipSpace()

	return p.Pos() < len(content) && content[p.Pos()] == '('
}

// decodeInvocation parses `"url", { options })` with the cursor just past
// the opening parenthesis.
func decodeInvocation(p *literal.Parser) (models.RequestRecord, error) {
	var record models.RequestRecord

	urlVal, err := p.ParseValue()
	if err != nil {
		return record, fmt.Errorf("decoding URL argument: %w", err)
	}
	if urlVal.Kind != literal.KindString {
		return record, fmt.Errorf("first argument is %s, expected a string URL", urlVal.Kind)
	}

	options := literal.ObjectValue()

	p.SkipSpace()
	if p.Pos() < len(p.Source()) && p.Source()[p.Pos()] == ',' {
		p.SetPos(p.Pos() + 1)

		options, err = p.ParseValue()
		if err != nil {
			return record, fmt.Errorf("decoding options argument: %w", err)
		}
		if options.Kind != literal.KindObject {
			return record, fmt.Errorf("second argument is %s, expected an options object", options.Kind)
		}
	}

	p.SkipSpace()
	if p.Pos() < len(p.Source()) && p.Source()[p.Pos()] == ',' {
		p.SetPos(p.Pos() + 1)
		p.SkipSpace()
	}
	if p.Pos() >= len(p.Source()) || p.Source()[p.Pos()] != ')' {
		return record, fmt.Errorf("unterminated invocation: expected )")
	}
	p.SetPos(p.Pos() + 1)

	p.SkipSpace()
	if p.Pos() < len(p.Source()) && p.Source()[p.Pos()] == ';' {
		p.SetPos(p.Pos() + 1)
	}

	record.FullURL = urlVal.Str
	record.Path, record.Query, err = SplitURL(urlVal.Str)
	if err != nil {
		return record, fmt.Errorf("decoding URL %q: %w", urlVal.Str, err)
	}

	record.Method = "GET"
	if m, ok := options.Lookup("method"); ok && m.Kind == literal.KindString && m.Str != "" {
		record.Method = m.Str
	}

	if headers, ok := options.Lookup("headers"); ok && headers.Kind == literal.KindObject {
		for _, f := range headers.Fields {
			record.Headers = append(record.Headers, models.Header{
				Name:  f.Key,
				Value: f.Value.Text(),
			})
		}
	}

	if body, ok := options.Lookup("body"); ok {
		applyBody(&record, body)
	}

	return record, nil
}

// applyBody decodes the body option. The common case is a JSON document
// transmitted as a string; that is re-parsed into a value tree so the diff
// engine can operate on its structure.
func applyBody(record *models.RequestRecord, body *literal.Value) {
	switch body.Kind {
	case literal.KindNull:
		return
	case literal.KindString:
		s := body.Str
		if s == "" || s == "null" {
			return
		}
		if json.Valid([]byte(s)) {
			if parsed, err := literal.Parse(s); err == nil {
				record.Body = parsed
				return
			}
		}
		record.RawBody = s
	default:
		record.Body = body
	}
}

// SplitURL separates the path component from the decoded query parameters.
// Parameter order follows the query string; keys and values are
// percent-decoded.
func SplitURL(full string) (string, []models.Param, error) {
	u, err := url.Parse(full)
	if err != nil {
		return "", nil, err
	}

	var params []models.Param
	if u.RawQuery != "" {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if pair == "" {
				continue
			}

			key, value, _ := strings.Cut(pair, "=")

			decodedKey, err := url.QueryUnescape(key)
			if err != nil {
				decodedKey = key
			}
			decodedValue, err := url.QueryUnescape(value)
			if err != nil {
				decodedValue = value
			}

			params = append(params, models.Param{Key: decodedKey, Value: decodedValue})
		}
	}

	return u.Path, params, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
