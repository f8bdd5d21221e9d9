package normalize

import (
	"testing"
)

func TestLabel(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9
	got, err := Label("  cafe\u0301 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "caf\u00e9" {
		t.Fatalf("Label=%q; want %q", got, "caf\u00e9")
	}
	if got, _ := Label("hello world"); got != "hello world" {
		t.Fatalf("inner space must be kept, got %q", got)
	}
	for _, bad := range []string{"", "   ", "a\nb", "a\rb"} {
		if _, err := Label(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestChar(t *testing.T) {
	cases := map[string]string{
		"a\n":         "a",
		" \n":         " ",
		"e\u0301\r\n": "\u00e9",
		"\tb ":        "b",
	}
	for in, want := range cases {
		if got := Char(in); got != want {
			t.Fatalf("Char(%q)=%q; want %q", in, got, want)
		}
	}
}
