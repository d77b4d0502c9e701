// Package har imports DevTools HAR exports as request records, so a HAR
// capture can stand in for a fetch export on either side of a comparison.
package har

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"apidiff/internal/config"
	"apidiff/internal/extract"
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	Request struct {
		Method   string      `json:"method"`
		URL      string      `json:"url"`
		Headers  []harHeader `json:"headers"`
		PostData *struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"postData"`
	} `json:"request"`
	Response struct {
		Status  int         `json:"status"`
		Headers []harHeader `json:"headers"`
		Content struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"content"`
	} `json:"response"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseFile reads a HAR file and returns its API requests in capture order.
// Static assets and HTTP/2 pseudo-headers are dropped. Entries with an
// unparsable URL are skipped with a warning, like any other bad invocation.
func ParseFile(path string, cfg *config.Config) (extract.Result, error) {
	var res extract.Result

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("failed to read HAR file: %w", err)
	}

	var har harFile
	if err := json.Unmarshal(data, &har); err != nil {
		return res, fmt.Errorf("failed to parse HAR JSON: %w", err)
	}

	if cfg == nil {
		cfg = config.Default()
	}

	for i, entry := range har.Log.Entries {
		url := entry.Request.URL
		if url == "" || cfg.IsStaticAsset(pathOnly(url)) {
			continue
		}

		record := models.RequestRecord{
			Method:  entry.Request.Method,
			FullURL: url,
		}

		record.Path, record.Query, err = extract.SplitURL(url)
		if err != nil {
			res.Warnings = append(res.Warnings, models.Warning{
				Offset: i,
				Err:    fmt.Errorf("entry %d: bad URL %q: %w", i, url, err),
			})
			continue
		}

		record.Headers = convertHeaders(entry.Request.Headers)

		if pd := entry.Request.PostData; pd != nil && pd.Text != "" {
			applyBody(&record, pd.MimeType, pd.Text)
		}

		response := &models.ResponseRecord{
			Status:  entry.Response.Status,
			Headers: convertHeaders(entry.Response.Headers),
		}
		if text := entry.Response.Content.Text; text != "" {
			applyResponseBody(response, entry.Response.Content.MimeType, text)
		}
		record.Response = response

		res.Records = append(res.Records, record)
	}

	return res, nil
}

func convertHeaders(headers []harHeader) []models.Header {
	var out []models.Header
	for _, h := range headers {
		// :authority style pseudo-headers are transport detail.
		if strings.HasPrefix(h.Name, ":") {
			continue
		}
		out = append(out, models.Header{Name: h.Name, Value: h.Value})
	}

	return out
}

func applyBody(record *models.RequestRecord, mimeType, text string) {
	if isJSON(mimeType, text) {
		if parsed, err := literal.Parse(text); err == nil {
			record.Body = parsed
			return
		}
	}

	record.RawBody = text
}

func applyResponseBody(response *models.ResponseRecord, mimeType, text string) {
	if isJSON(mimeType, text) {
		if parsed, err := literal.Parse(text); err == nil {
			response.Body = parsed
			return
		}
	}

	response.RawBody = text
}

func isJSON(mimeType, text string) bool {
	if strings.Contains(strings.ToLower(mimeType), "json") {
		return json.Valid([]byte(text))
	}

	return false
}

func pathOnly(url string) string {
	s := url
	if idx := strings.Index(s, "?"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
		if slash := strings.Index(s, "/"); slash >= 0 {
			s = s[slash:]
		} else {
			s = "/"
		}
	}

	return s
}
