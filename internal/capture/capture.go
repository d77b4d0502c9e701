// Package capture runs a recording reverse proxy: live traffic flows through
// to the upstream while every exchange is appended as a JSON line, reloadable
// as a comparison side.
package capture

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"apidiff/internal/models"
)

type Config struct {
	ListenAddr string
	Upstream   string
	OutputFile string
}

// Entry is one recorded exchange, one JSON line in the output file.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Method    string          `json:"method"`
	URL       string          `json:"url"`
	Headers   []models.Header `json:"headers,omitempty"`
	Body      string          `json:"body,omitempty"`

	Status          int             `json:"status,omitempty"`
	ResponseHeaders []models.Header `json:"response_headers,omitempty"`
	ResponseBody    string          `json:"response_body,omitempty"`
	LatencyMs       int64           `json:"latency_ms,omitempty"`
}

const bodyBufferHeader = "X-Capture-Body-Buffer"
const startedAtHeader = "X-Capture-Started-At"

// Start runs the proxy until the server stops. Blocks.
func Start(config *Config) error {
	out, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open capture output: %w", err)
	}

	writer := bufio.NewWriter(out)
	defer func() {
		if err := writer.Flush(); err != nil {
			log.Printf("Error flushing capture output: %v\n", err)
		}
		if err := out.Close(); err != nil {
			log.Printf("Error closing capture output: %v\n", err)
		}
	}()

	rawUp := strings.TrimSpace(config.Upstream)
	if rawUp == "" {
		return fmt.Errorf("upstream is empty")
	}
	if !strings.Contains(rawUp, "://") {
		rawUp = "http://" + rawUp
	}

	upURL, err := url.Parse(rawUp)
	if err != nil {
		return fmt.Errorf("invalid upstream URL: %w", err)
	}

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			if req.Body != nil {
				bodyBytes, _ := io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(bodyBytes))

				// The body is consumed by the upstream round trip, so stash a
				// copy where ModifyResponse can still reach it.
				req.Header.Set(bodyBufferHeader, base64.StdEncoding.EncodeToString(bodyBytes))
			}
			req.Header.Set(startedAtHeader, time.Now().UTC().Format(time.RFC3339Nano))

			req.URL.Scheme = upURL.Scheme
			req.URL.Host = upURL.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			req := resp.Request

			var reqBody []byte
			if b64 := req.Header.Get(bodyBufferHeader); b64 != "" {
				decoded, err := base64.StdEncoding.DecodeString(b64)
				if err != nil {
					return err
				}
				reqBody = decoded
			}

			start := time.Now()
			if raw := req.Header.Get(startedAtHeader); raw != "" {
				if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
					start = t
				}
			}
			req.Header.Del(bodyBufferHeader)
			req.Header.Del(startedAtHeader)

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			resp.Body = io.NopCloser(bytes.NewReader(respBody))

			entry := Entry{
				Timestamp:       start,
				Method:          req.Method,
				URL:             req.URL.String(),
				Headers:         headerList(req.Header),
				Body:            string(reqBody),
				Status:          resp.StatusCode,
				ResponseHeaders: headerList(resp.Header),
				ResponseBody:    string(respBody),
				LatencyMs:       time.Since(start).Milliseconds(),
			}

			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}

			if _, err := writer.Write(append(data, '\n')); err != nil {
				return err
			}

			return writer.Flush()
		},
	}

	server := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           proxy,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	log.Printf("Capture mode ON -- listening on %s --> %s\n", config.ListenAddr, upURL.Host)

	return server.ListenAndServe()
}

func headerList(h http.Header) []models.Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []models.Header
	for _, name := range names {
		for _, v := range h[name] {
			out = append(out, models.Header{Name: name, Value: v})
		}
	}

	return out
}
