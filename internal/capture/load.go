package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"apidiff/internal/extract"
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// LoadFile reads a capture output file (JSON lines) back into request
// records. Bad lines become warnings, not errors.
func LoadFile(path string) (extract.Result, error) {
	var res extract.Result

	file, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			res.Warnings = append(res.Warnings, models.Warning{
				Offset: line,
				Err:    fmt.Errorf("line %d: bad capture entry: %w", line, err),
			})
			continue
		}

		record := models.RequestRecord{
			Method:  entry.Method,
			FullURL: entry.URL,
			Headers: entry.Headers,
		}

		record.Path, record.Query, err = extract.SplitURL(entry.URL)
		if err != nil {
			res.Warnings = append(res.Warnings, models.Warning{
				Offset: line,
				Err:    fmt.Errorf("line %d: bad URL %q: %w", line, entry.URL, err),
			})
			continue
		}

		applyBody(&record, entry.Body)

		if entry.Status != 0 {
			record.Response = &models.ResponseRecord{
				Status:    entry.Status,
				Headers:   entry.ResponseHeaders,
				LatencyMs: entry.LatencyMs,
			}
			if parsed, err := literal.Parse(entry.ResponseBody); err == nil && entry.ResponseBody != "" {
				record.Response.Body = parsed
			} else {
				record.Response.RawBody = entry.ResponseBody
			}
		}

		res.Records = append(res.Records, record)
	}

	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read capture file: %w", err)
	}

	return res, nil
}

// IsCaptureFile sniffs whether the first non-empty line looks like a capture
// entry.
func IsCaptureFile(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var probe struct {
			Method string `json:"method"`
			URL    string `json:"url"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			return false
		}

		return probe.Method != "" && probe.URL != ""
	}

	return false
}

func applyBody(record *models.RequestRecord, body string) {
	if body == "" {
		return
	}

	if json.Valid([]byte(body)) {
		if parsed, err := literal.Parse(body); err == nil {
			record.Body = parsed
			return
		}
	}

	record.RawBody = body
}
