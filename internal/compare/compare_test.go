package compare

import (
	"testing"

	"apidiff/internal/config"
	"apidiff/internal/diff"
	"apidiff/internal/extract"
	"apidiff/internal/models"
)

func extractRecords(t *testing.T, content string) []models.RequestRecord {
	t.Helper()

	res := extract.Extract(content)
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	return res.Records
}

func TestCompareEndToEnd(t *testing.T) {
	old := extractRecords(t, `fetch("https://api.example.com/api/status", {"method": "GET"});`)
	new := extractRecords(t, `fetch("https://api.example.com/api/status?server=lenovo-01", {"method": "GET"});`)

	result := Compare(old, new, Options{})

	if result.Summary.Matched != 1 {
		t.Fatalf("expected 1 matched pair, got %d", result.Summary.Matched)
	}

	pair := result.Matched[0]
	if len(pair.QueryDiff) != 1 {
		t.Fatalf("expected 1 query diff, got %+v", pair.QueryDiff)
	}

	e := pair.QueryDiff[0]
	if e.Kind != diff.Added || e.Path.String() != "server" || e.New.Str != "lenovo-01" {
		t.Errorf("expected added server=lenovo-01, got %s at %s value %+v", e.Kind, e.Path, e.New)
	}

	if !result.HasDifferences() {
		t.Error("result should report differences")
	}
	if result.Summary.WithDifferences != 1 {
		t.Errorf("expected 1 pair with differences, got %d", result.Summary.WithDifferences)
	}
}

func TestCompareIdenticalRuns(t *testing.T) {
	export := `fetch("https://api.example.com/orders", {
  "method": "POST",
  "body": "{\"user_id\":1,\"items\":[2,3]}"
});`

	result := Compare(extractRecords(t, export), extractRecords(t, export), Options{})

	if result.HasDifferences() {
		t.Errorf("identical runs should not differ: %+v", result)
	}
}

func TestCompareBodyDrift(t *testing.T) {
	old := extractRecords(t, `fetch("https://a/orders", {"method": "POST", "body": "{\"total\": 10}"});`)
	new := extractRecords(t, `fetch("https://a/orders", {"method": "POST", "body": "{\"total\": \"10.00\"}"});`)

	result := Compare(old, new, Options{})

	pair := result.Matched[0]
	if len(pair.BodyDiff) != 1 {
		t.Fatalf("expected 1 body diff, got %+v", pair.BodyDiff)
	}
	if pair.BodyDiff[0].Kind != diff.TypeMismatch || pair.BodyDiff[0].Path.String() != "total" {
		t.Errorf("expected type mismatch at total, got %s at %s",
			pair.BodyDiff[0].Kind, pair.BodyDiff[0].Path)
	}
}

func TestCompareVolatileFieldsIgnored(t *testing.T) {
	old := extractRecords(t, `fetch("https://a/x", {"method": "POST", "body": "{\"name\":\"a\",\"timestamp\":\"2024-01-01\"}"});`)
	new := extractRecords(t, `fetch("https://a/x", {"method": "POST", "body": "{\"name\":\"a\",\"timestamp\":\"2024-06-01\"}"});`)

	t.Run("stripped by default options", func(t *testing.T) {
		result := Compare(old, new, Options{IgnoreVolatile: true})
		if result.Matched[0].HasDifferences() {
			t.Errorf("timestamp churn should be ignored: %+v", result.Matched[0].BodyDiff)
		}
	})

	t.Run("kept when volatile stripping is off", func(t *testing.T) {
		result := Compare(old, new, Options{IgnoreVolatile: false})
		if len(result.Matched[0].BodyDiff) != 1 {
			t.Errorf("expected the timestamp change to surface, got %+v", result.Matched[0].BodyDiff)
		}
	})
}

func TestCompareRawBodies(t *testing.T) {
	old := extractRecords(t, `fetch("https://a/form", {"method": "POST", "body": "a=1&b=2"});`)
	new := extractRecords(t, `fetch("https://a/form", {"method": "POST", "body": "a=1&b=3"});`)

	result := Compare(old, new, Options{})

	pair := result.Matched[0]
	if len(pair.BodyDiff) != 0 {
		t.Errorf("raw bodies should not produce structural entries: %+v", pair.BodyDiff)
	}
	if len(pair.BodyText) == 0 {
		t.Error("expected a text diff for raw bodies")
	}
}

func TestCompareOneSidedBody(t *testing.T) {
	old := extractRecords(t, `fetch("https://a/x", {"method": "POST", "body": "{\"a\":1}"});`)
	new := extractRecords(t, `fetch("https://a/x", {"method": "POST"});`)

	result := Compare(old, new, Options{})

	pair := result.Matched[0]
	if len(pair.BodyDiff) != 1 || pair.BodyDiff[0].Kind != diff.Removed {
		t.Errorf("expected a single removed entry for the vanished body, got %+v", pair.BodyDiff)
	}
}

func TestCompareResponses(t *testing.T) {
	record := func(status int, body, errMsg string) models.RequestRecord {
		r := extractRecords(t, `fetch("https://a/r", {"method": "GET"});`)[0]
		if status != 0 || errMsg != "" {
			r.Response = &models.ResponseRecord{Status: status, RawBody: body, Err: errMsg}
		}
		return r
	}

	t.Run("status change", func(t *testing.T) {
		result := Compare(
			[]models.RequestRecord{record(200, "", "")},
			[]models.RequestRecord{record(500, "", "")},
			Options{})

		rc := result.Matched[0].Response
		if rc == nil || !rc.StatusChanged {
			t.Fatalf("expected status change, got %+v", rc)
		}
		if !result.HasDifferences() {
			t.Error("status change should count as a difference")
		}
	})

	t.Run("one side missing", func(t *testing.T) {
		result := Compare(
			[]models.RequestRecord{record(200, "", "")},
			[]models.RequestRecord{record(0, "", "")},
			Options{})

		rc := result.Matched[0].Response
		if rc == nil || rc.Unavailable == "" {
			t.Fatalf("expected unavailable marker, got %+v", rc)
		}
	})

	t.Run("replay failure", func(t *testing.T) {
		result := Compare(
			[]models.RequestRecord{record(200, "", "")},
			[]models.RequestRecord{record(0, "", "connection refused")},
			Options{})

		rc := result.Matched[0].Response
		if rc == nil || rc.Unavailable == "" {
			t.Fatalf("expected unavailable marker for failed replay, got %+v", rc)
		}
	})
}

func TestCompareHeadersNormalization(t *testing.T) {
	cfg := config.Default()

	t.Run("multipart boundary ignored", func(t *testing.T) {
		old := []models.Header{{Name: "Content-Type", Value: "multipart/form-data; boundary=----abc123"}}
		new := []models.Header{{Name: "Content-Type", Value: "multipart/form-data; boundary=----xyz789"}}

		if entries := CompareHeaders(old, new, cfg, false); len(entries) != 0 {
			t.Errorf("boundary churn should be ignored: %+v", entries)
		}
	})

	t.Run("content-disposition filename ignored on responses", func(t *testing.T) {
		old := []models.Header{{Name: "Content-Disposition", Value: `attachment; filename="report-1.pdf"`}}
		new := []models.Header{{Name: "Content-Disposition", Value: `attachment; filename="report-2.pdf"`}}

		if entries := CompareHeaders(old, new, cfg, true); len(entries) != 0 {
			t.Errorf("filename churn should be ignored on responses: %+v", entries)
		}
		if entries := CompareHeaders(old, new, cfg, false); len(entries) != 1 {
			t.Errorf("request headers compare filenames: %+v", entries)
		}
	})

	t.Run("infrastructure headers dropped", func(t *testing.T) {
		old := []models.Header{
			{Name: "User-Agent", Value: "browser-a"},
			{Name: "Content-Type", Value: "application/json"},
		}
		new := []models.Header{
			{Name: "User-Agent", Value: "browser-b"},
			{Name: "Content-Type", Value: "text/plain"},
		}

		entries := CompareHeaders(old, new, cfg, false)
		if len(entries) != 1 || entries[0].Path.String() != "content-type" {
			t.Errorf("expected only the content-type change, got %+v", entries)
		}
	})

	t.Run("repeated header keeps last value", func(t *testing.T) {
		old := []models.Header{
			{Name: "X-Thing", Value: "first"},
			{Name: "X-Thing", Value: "second"},
		}
		new := []models.Header{{Name: "x-thing", Value: "second"}}

		if entries := CompareHeaders(old, new, cfg, false); len(entries) != 0 {
			t.Errorf("expected no entries, got %+v", entries)
		}
	})
}

func TestStripVolatile(t *testing.T) {
	cfg := config.Default()

	records := extractRecords(t, `fetch("https://a/x", {
  "method": "POST",
  "body": "{\"name\":\"a\",\"traceId\":\"t-1\",\"nested\":{\"updatedAt\":\"now\",\"keep\":true}}"
});`)

	stripped := StripVolatile(records[0].Body, cfg)

	if _, ok := stripped.Lookup("traceId"); ok {
		t.Error("traceId should be stripped")
	}

	nested, ok := stripped.Lookup("nested")
	if !ok {
		t.Fatal("nested object should survive")
	}
	if _, ok := nested.Lookup("updatedAt"); ok {
		t.Error("nested updatedAt should be stripped")
	}
	if _, ok := nested.Lookup("keep"); !ok {
		t.Error("non-volatile nested field should survive")
	}

	// The original tree is untouched.
	if _, ok := records[0].Body.Lookup("traceId"); !ok {
		t.Error("StripVolatile must not mutate its input")
	}
}
