package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"apidiff/internal/extract"
	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// CollectedRun is the on-disk form of one captured run with its replayed
// responses, reloadable as a comparison side.
type CollectedRun struct {
	ID          string             `json:"id"`
	CollectedAt time.Time          `json:"collected_at"`
	Metadata    extract.Metadata   `json:"metadata"`
	Requests    []CollectedRequest `json:"requests"`
}

type CollectedRequest struct {
	Method  string          `json:"method"`
	URL     string          `json:"url"`
	Headers []models.Header `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	RawBody string          `json:"raw_body,omitempty"`

	Response *CollectedResponse `json:"response,omitempty"`
}

type CollectedResponse struct {
	Status    int             `json:"status,omitempty"`
	Headers   []models.Header `json:"headers,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
	RawBody   string          `json:"raw_body,omitempty"`
	LatencyMs int64           `json:"latency_ms,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// SaveCollected persists records (with any attached responses) under a fresh
// run ID.
func SaveCollected(records []models.RequestRecord, meta extract.Metadata, path string) (string, error) {
	run := CollectedRun{
		ID:          uuid.NewString(),
		CollectedAt: time.Now().UTC(),
		Metadata:    meta,
		Requests:    []CollectedRequest{},
	}

	for _, r := range records {
		req := CollectedRequest{
			Method:  r.Method,
			URL:     r.FullURL,
			Headers: r.Headers,
			RawBody: r.RawBody,
		}

		if r.Body != nil {
			data, err := json.Marshal(r.Body)
			if err != nil {
				return "", fmt.Errorf("encoding body for %s %s: %w", r.Method, r.Path, err)
			}
			req.Body = data
		}

		if resp := r.Response; resp != nil {
			cr := &CollectedResponse{
				Status:    resp.Status,
				Headers:   resp.Headers,
				RawBody:   resp.RawBody,
				LatencyMs: resp.LatencyMs,
				Error:     resp.Err,
			}
			if resp.Body != nil {
				data, err := json.Marshal(resp.Body)
				if err != nil {
					return "", fmt.Errorf("encoding response body for %s %s: %w", r.Method, r.Path, err)
				}
				cr.Body = data
			}
			req.Response = cr
		}

		run.Requests = append(run.Requests, req)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal collected run: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write collected run: %w", err)
	}

	return run.ID, nil
}

// LoadCollected reads a collected-run file back into request records.
func LoadCollected(path string) (extract.Result, extract.Metadata, error) {
	var res extract.Result

	data, err := os.ReadFile(path)
	if err != nil {
		return res, extract.Metadata{}, fmt.Errorf("failed to read collected run: %w", err)
	}

	var run CollectedRun
	if err := json.Unmarshal(data, &run); err != nil {
		return res, extract.Metadata{}, fmt.Errorf("failed to parse collected run: %w", err)
	}

	for i, req := range run.Requests {
		record := models.RequestRecord{
			Method:  req.Method,
			FullURL: req.URL,
			Headers: req.Headers,
			RawBody: req.RawBody,
		}

		record.Path, record.Query, err = extract.SplitURL(req.URL)
		if err != nil {
			res.Warnings = append(res.Warnings, models.Warning{
				Offset: i,
				Err:    fmt.Errorf("request %d: bad URL %q: %w", i, req.URL, err),
			})
			continue
		}

		if len(req.Body) > 0 {
			record.Body, err = literal.Parse(string(req.Body))
			if err != nil {
				res.Warnings = append(res.Warnings, models.Warning{
					Offset: i,
					Err:    fmt.Errorf("request %d: bad body: %w", i, err),
				})
				continue
			}
		}

		if cr := req.Response; cr != nil {
			resp := &models.ResponseRecord{
				Status:    cr.Status,
				Headers:   cr.Headers,
				RawBody:   cr.RawBody,
				LatencyMs: cr.LatencyMs,
				Err:       cr.Error,
			}
			if len(cr.Body) > 0 {
				if parsed, err := literal.Parse(string(cr.Body)); err == nil {
					resp.Body = parsed
				} else {
					resp.RawBody = string(cr.Body)
				}
			}
			record.Response = resp
		}

		res.Records = append(res.Records, record)
	}

	return res, run.Metadata, nil
}

// IsCollectedFile sniffs whether a file looks like a saved collected run
// rather than a raw fetch export.
func IsCollectedFile(data []byte) bool {
	var probe struct {
		ID       string           `json:"id"`
		Requests *json.RawMessage `json:"requests"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}

	return probe.Requests != nil
}
