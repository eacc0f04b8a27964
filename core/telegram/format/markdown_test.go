package format

import (
	"strings"
	"testing"
)

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"plain", MarkdownV1, "plain"},
		{"snake_case*bold*", MarkdownV1, `snake\_case\*bold\*`},
		{"[link]`code`", MarkdownV1, "\\[link]\\`code\\`"},
		{"a.b-c!", MarkdownV2, `a\.b\-c\!`},
		{"(x)", MarkdownV2, `\(x\)`},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("EscapeMarkdown(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("EscapeMarkdown(%q, %d) = %q, want %q", tc.in, tc.version, got, tc.want)
		}
	}
}

func TestEscapeMarkdownUnsupported(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestEscapeMarkdownV2KeepsDigits(t *testing.T) {
	got, err := EscapeMarkdown("id-42", MarkdownV2)
	if err != nil {
		t.Fatal(err)
	}
	if got != `id\-42` {
		t.Fatalf("got %q", got)
	}
}

func TestEscapeMarkdownV2EscapesEveryReserved(t *testing.T) {
	const reserved = "_*[]()~`>#+-=|{}.!\\"
	got, err := EscapeMarkdown(reserved, MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	var want strings.Builder
	for _, r := range reserved {
		want.WriteByte('\\')
		want.WriteRune(r)
	}
	if got != want.String() {
		t.Fatalf("got %q, want %q", got, want.String())
	}
}
