package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscapeKeepsAngleBrackets(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"text": "a < b && c > d"})
	if err != nil {
		t.Fatalf("MarshalNoEscape: %v", err)
	}
	if strings.Contains(string(out), `<`) {
		t.Fatalf("output is HTML-escaped: %s", out)
	}
	if !strings.Contains(string(out), "a < b && c > d") {
		t.Fatalf("output lost the literal text: %s", out)
	}
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	out, err := MarshalNoEscapeIndent(map[string]any{"a": 1}, "", "  ")
	if err != nil {
		t.Fatalf("MarshalNoEscapeIndent: %v", err)
	}
	if want := "{\n  \"a\": 1\n}"; string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
