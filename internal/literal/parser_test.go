package literal

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustParse(t *testing.T, src string) *Value {
	t.Helper()

	v, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}

	return v
}

func TestParseScalars(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		v := mustParse(t, "null")
		if v.Kind != KindNull {
			t.Errorf("expected null, got %s", v.Kind)
		}
	})

	t.Run("undefined maps to null", func(t *testing.T) {
		v := mustParse(t, "undefined")
		if v.Kind != KindNull {
			t.Errorf("expected null for undefined, got %s", v.Kind)
		}
	})

	t.Run("booleans", func(t *testing.T) {
		if v := mustParse(t, "true"); v.Kind != KindBool || !v.Bool {
			t.Errorf("expected true, got %+v", v)
		}
		if v := mustParse(t, "false"); v.Kind != KindBool || v.Bool {
			t.Errorf("expected false, got %+v", v)
		}
	})

	t.Run("integer stays integer", func(t *testing.T) {
		v := mustParse(t, "42")
		if v.Kind != KindNumber || !v.Number.IsInt || v.Number.Int != 42 {
			t.Errorf("expected integer 42, got %+v", v)
		}
	})

	t.Run("negative integer", func(t *testing.T) {
		v := mustParse(t, "-7")
		if !v.Number.IsInt || v.Number.Int != -7 {
			t.Errorf("expected -7, got %+v", v)
		}
	})

	t.Run("fractional number", func(t *testing.T) {
		v := mustParse(t, "3.25")
		if v.Kind != KindNumber || v.Number.IsInt || v.Number.Float != 3.25 {
			t.Errorf("expected float 3.25, got %+v", v)
		}
	})

	t.Run("exponent forces float", func(t *testing.T) {
		v := mustParse(t, "1e3")
		if v.Number.IsInt {
			t.Errorf("expected float for 1e3, got integer %d", v.Number.Int)
		}
		if v.Number.Float != 1000 {
			t.Errorf("expected 1000, got %f", v.Number.Float)
		}
	})
}

func TestParseStrings(t *testing.T) {
	t.Run("double quoted", func(t *testing.T) {
		v := mustParse(t, `"hello"`)
		if v.Kind != KindString || v.Str != "hello" {
			t.Errorf("expected hello, got %+v", v)
		}
	})

	t.Run("single quoted", func(t *testing.T) {
		v := mustParse(t, `'it\'s'`)
		if v.Str != "it's" {
			t.Errorf("expected it's, got %q", v.Str)
		}
	})

	t.Run("backtick multiline", func(t *testing.T) {
		v := mustParse(t, "`line one\nline two`")
		if v.Str != "line one\nline two" {
			t.Errorf("unexpected string %q", v.Str)
		}
	})

	t.Run("concatenation with plus", func(t *testing.T) {
		v := mustParse(t, `"foo" + 'bar' + "baz"`)
		if v.Str != "foobarbaz" {
			t.Errorf("expected foobarbaz, got %q", v.Str)
		}
	})

	t.Run("escapes", func(t *testing.T) {
		v := mustParse(t, `"a\nb\tcA\x21"`)
		if v.Str != "a\nb\tcA!" {
			t.Errorf("unexpected string %q", v.Str)
		}
	})

	t.Run("surrogate pair", func(t *testing.T) {
		v := mustParse(t, "\"\\uD83D\\uDE00\"")
		if v.Str != "\U0001F600" {
			t.Errorf("unexpected string %q", v.Str)
		}
	})

	t.Run("unknown escape kept literally", func(t *testing.T) {
		v := mustParse(t, `"\q"`)
		if v.Str != "q" {
			t.Errorf("expected q, got %q", v.Str)
		}
	})

	t.Run("unterminated string fails with offset", func(t *testing.T) {
		_, err := Parse(`"open`)
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
		if syntaxErr.Offset != 0 {
			t.Errorf("expected offset 0, got %d", syntaxErr.Offset)
		}
	})
}

func TestParseContainers(t *testing.T) {
	t.Run("array with trailing comma", func(t *testing.T) {
		v := mustParse(t, "[1, 2, 3,]")
		if v.Kind != KindArray || len(v.Items) != 3 {
			t.Fatalf("expected 3 items, got %+v", v)
		}
		if v.Items[2].Number.Int != 3 {
			t.Errorf("unexpected last item %+v", v.Items[2])
		}
	})

	t.Run("object with bare keys", func(t *testing.T) {
		v := mustParse(t, `{method: "GET", $id: 1, _x: true}`)
		if v.Kind != KindObject || len(v.Fields) != 3 {
			t.Fatalf("expected 3 fields, got %+v", v)
		}
		if v.Fields[0].Key != "method" || v.Fields[1].Key != "$id" || v.Fields[2].Key != "_x" {
			t.Errorf("unexpected keys %v %v %v", v.Fields[0].Key, v.Fields[1].Key, v.Fields[2].Key)
		}
	})

	t.Run("duplicate keys keep first position last value", func(t *testing.T) {
		v := mustParse(t, `{a: 1, b: 2, a: 3}`)
		if len(v.Fields) != 2 {
			t.Fatalf("expected 2 fields after dedup, got %d", len(v.Fields))
		}
		if v.Fields[0].Key != "a" || v.Fields[0].Value.Number.Int != 3 {
			t.Errorf("expected a=3 in first position, got %s=%+v", v.Fields[0].Key, v.Fields[0].Value)
		}
	})

	t.Run("nested structure", func(t *testing.T) {
		v := mustParse(t, `{user: {id: 7, tags: ["a", "b"]}}`)
		user, ok := v.Lookup("user")
		if !ok {
			t.Fatal("missing user field")
		}
		tags, ok := user.Lookup("tags")
		if !ok || len(tags.Items) != 2 {
			t.Fatalf("unexpected tags %+v", tags)
		}
	})

	t.Run("comments are skipped", func(t *testing.T) {
		v := mustParse(t, "{\n  // count of things\n  count: 5, /* inline */ ok: true\n}")
		if len(v.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(v.Fields))
		}
	})

	t.Run("unclosed object fails", func(t *testing.T) {
		if _, err := Parse(`{a: 1`); err == nil {
			t.Error("expected error for unclosed object")
		}
	})
}

func TestValueEqual(t *testing.T) {
	t.Run("deep equality", func(t *testing.T) {
		a := mustParse(t, `{x: [1, {y: "z"}]}`)
		b := mustParse(t, `{x: [1, {y: "z"}]}`)
		if !Equal(a, b) {
			t.Error("expected deep equal values")
		}
	})

	t.Run("int and float are not equal", func(t *testing.T) {
		a := mustParse(t, "1")
		b := mustParse(t, "1.0")
		if Equal(a, b) {
			t.Error("integer 1 should not equal float 1.0")
		}
	})

	t.Run("field order matters for iteration but not equality", func(t *testing.T) {
		a := mustParse(t, `{a: 1, b: 2}`)
		b := mustParse(t, `{b: 2, a: 1}`)
		if !Equal(a, b) {
			t.Error("objects with same fields should be equal regardless of order")
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	v := mustParse(t, `{b: 2, a: "x", list: [1, 2.5, null, true]}`)

	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	want := `{"b":2,"a":"x","list":[1,2.5,null,true]}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := mustParse(t, `{b: 2, a: "x", list: [1, 2.5, null, true], nested: {ok: false}}`)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !Equal(original, &decoded) {
		t.Errorf("value changed in round trip: %s vs %s", data, decoded.Text())
	}
	if decoded.Fields[0].Key != "b" {
		t.Errorf("field order should survive the round trip, got %q first", decoded.Fields[0].Key)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse(`{"a": 1} extra`); err == nil {
		t.Error("expected error for trailing content")
	}
}
