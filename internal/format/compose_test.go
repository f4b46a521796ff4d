package format_test

import (
	"testing"
	"time"

	"oven/internal/format"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"all present", []string{"a", "b", "c"}, "a\n\nb\n\nc"},
		{"empty aux", []string{"a", "", "c"}, "a\n\nc"},
		{"whitespace only", []string{"a", " \n\t", "c"}, "a\n\nc"},
		{"nothing", []string{"", ""}, ""},
		{"collapses inner blanks", []string{"a\n\n\n\nb"}, "a\n\nb"},
		{"trims trailing spaces", []string{"a  \nb\t"}, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format.Compose(tt.parts...); got != tt.want {
				t.Fatalf("Compose = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockquote(t *testing.T) {
	if got := format.Blockquote(""); got != "" {
		t.Fatalf("empty blockquote = %q", got)
	}
	if got := format.Blockquote("a\n\nb"); got != "> a\n>\n> b" {
		t.Fatalf("blockquote = %q", got)
	}
}

func TestHelpers(t *testing.T) {
	if got := format.Elapsed(1500 * time.Millisecond); got != "2s" {
		t.Fatalf("Elapsed = %q", got)
	}
	if got := format.Elapsed(-time.Second); got != "0s" {
		t.Fatalf("negative Elapsed = %q", got)
	}
	if got := format.Percent(0.5); got != "50%" {
		t.Fatalf("Percent = %q", got)
	}
	if got := format.Percent(0.425); got != "42.5%" {
		t.Fatalf("Percent = %q", got)
	}
	if got := format.Percent(0.29); got != "29%" {
		t.Fatalf("Percent = %q", got)
	}
	if got := format.HostLabel("gpu", "node01"); got != "gpu(node01)" {
		t.Fatalf("HostLabel = %q", got)
	}
	if got := format.HostLabel("", "node01"); got != "node01" {
		t.Fatalf("HostLabel = %q", got)
	}
}
