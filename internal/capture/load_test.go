package capture

import (
	"os"
	"path/filepath"
	"testing"

	"apidiff/internal/literal"
)

const sampleCapture = `{"timestamp":"2024-05-01T10:00:00Z","method":"GET","url":"https://api.example.com/users/7?expand=profile","headers":[{"name":"Accept","value":"application/json"}],"status":200,"response_body":"{\"id\": 7}","latency_ms":12}
{"timestamp":"2024-05-01T10:00:01Z","method":"POST","url":"https://api.example.com/orders","body":"{\"items\": [1]}","status":201,"latency_ms":30}

not json at all
`

func writeCapture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "captured.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write capture file: %v", err)
	}

	return path
}

func TestLoadFile(t *testing.T) {
	res, err := LoadFile(writeCapture(t, sampleCapture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("bad line should warn, got %d warnings", len(res.Warnings))
	}

	t.Run("request fields", func(t *testing.T) {
		r := res.Records[0]
		if r.Method != "GET" || r.Path != "/users/7" {
			t.Errorf("unexpected record %s %s", r.Method, r.Path)
		}
		if len(r.Query) != 1 || r.Query[0].Key != "expand" {
			t.Errorf("unexpected query %+v", r.Query)
		}
		if accept, ok := r.HeaderValue("Accept"); !ok || accept != "application/json" {
			t.Errorf("unexpected headers %+v", r.Headers)
		}
	})

	t.Run("response attached", func(t *testing.T) {
		resp := res.Records[0].Response
		if resp == nil || resp.Status != 200 || resp.LatencyMs != 12 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Body == nil || resp.Body.Kind != literal.KindObject {
			t.Errorf("json response body should be parsed, got %+v", resp.Body)
		}
	})

	t.Run("request body parsed", func(t *testing.T) {
		body := res.Records[1].Body
		if body == nil || body.Kind != literal.KindObject {
			t.Fatalf("expected parsed body, got %+v", body)
		}
	})
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsCaptureFile(t *testing.T) {
	if !IsCaptureFile([]byte(sampleCapture)) {
		t.Error("capture lines should be recognized")
	}
	if IsCaptureFile([]byte(`fetch("https://x", {});`)) {
		t.Error("a fetch export is not a capture file")
	}
	if IsCaptureFile([]byte(`{"id": "run", "requests": []}`)) {
		t.Error("a collected run is not a capture file")
	}
	if IsCaptureFile([]byte("\n\n")) {
		t.Error("empty input is not a capture file")
	}
}
