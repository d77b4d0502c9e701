// Package replay re-issues captured requests against a live target so the
// two runs can be compared on responses as well. Each request's outcome is
// independent: a failed replay only marks that pair's response comparison
// unavailable.
package replay

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"apidiff/internal/literal"
	"apidiff/internal/models"
)

// Browser-session headers that make no sense to resend.
var skipHeaderPrefixes = []string{
	"sec-fetch-", "sec-ch-ua", "referer", "referrer", "priority",
}

type Options struct {
	// Target overrides the scheme://host of every request. When empty the
	// recorded full URL is used.
	Target string

	Timeout     time.Duration
	Concurrency int

	// Delay spaces out request starts to avoid hammering the target.
	Delay time.Duration

	// Insecure skips TLS verification, for targets with self-signed
	// certificates.
	Insecure bool

	Progress bool
}

// Replay sends every record and returns one response per record, in the
// input order regardless of completion order. Concurrency is bounded by
// Options.Concurrency.
func Replay(records []models.RequestRecord, opts Options) []models.ResponseRecord {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: opts.Timeout}
	if opts.Insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
		}
	}

	var bar *ProgressBar
	if opts.Progress && len(records) > 0 {
		bar = NewProgressBar(len(records))
	}

	results := make([]models.ResponseRecord, len(records))
	semaphore := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for i := range records {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[idx] = send(client, records[idx], opts)

			if bar != nil {
				bar.Increment()
			}
		}(i)

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	wg.Wait()

	if bar != nil {
		bar.Finish()
	}

	return results
}

func send(client *http.Client, record models.RequestRecord, opts Options) models.ResponseRecord {
	target, err := requestURL(record, opts.Target)
	if err != nil {
		return models.ResponseRecord{Err: err.Error()}
	}

	var bodyReader io.Reader
	if record.Body != nil {
		data, err := json.Marshal(record.Body)
		if err != nil {
			return models.ResponseRecord{Err: fmt.Sprintf("encoding body: %v", err)}
		}
		bodyReader = bytes.NewReader(data)
	} else if record.RawBody != "" {
		bodyReader = strings.NewReader(record.RawBody)
	}

	req, err := http.NewRequest(strings.ToUpper(record.Method), target, bodyReader)
	if err != nil {
		return models.ResponseRecord{Err: err.Error()}
	}

	for _, h := range record.Headers {
		if skipHeader(h.Name) {
			continue
		}
		req.Header.Set(h.Name, h.Value)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	latencyMs := time.Since(start).Milliseconds()

	if err != nil {
		return models.ResponseRecord{LatencyMs: latencyMs, Err: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ResponseRecord{LatencyMs: latencyMs, Err: err.Error()}
	}

	result := models.ResponseRecord{
		Status:    resp.StatusCode,
		LatencyMs: latencyMs,
	}

	for name, values := range resp.Header {
		for _, v := range values {
			result.Headers = append(result.Headers, models.Header{Name: name, Value: v})
		}
	}

	text := string(bodyBytes)
	if json.Valid(bodyBytes) {
		if parsed, err := literal.Parse(text); err == nil {
			result.Body = parsed
			return result
		}
	}
	result.RawBody = text

	return result
}

// requestURL rebuilds the request URL, swapping in the target base when one
// is configured and re-encoding the recorded query in its original order.
func requestURL(record models.RequestRecord, target string) (string, error) {
	if target == "" {
		return record.FullURL, nil
	}

	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	base, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", target, err)
	}

	full := base.Scheme + "://" + base.Host + record.Path
	if query := encodeQuery(record.Query); query != "" {
		full += "?" + query
	}

	return full, nil
}

func encodeQuery(params []models.Param) string {
	if len(params) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	return sb.String()
}

func skipHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range skipHeaderPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
