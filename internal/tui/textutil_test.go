package tui

import "testing"

func TestTruncateEnd(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hell…"},
		{"hello", 0, ""},
		{"日本語テキスト", 5, "日本…"},
	}
	for _, tt := range tests {
		if got := truncateEnd(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateEnd(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"https://x.test", 40, "https://x.test"},
		{"abcdefghij", 5, "ab…ij"},
		{"abcdefghij", 1, "…"},
		{"abcdefghij", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateMiddle(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateMiddle(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n\n  hello  \nworld"); got != "hello" {
		t.Errorf("firstLine = %q, want hello", got)
	}
	if got := firstLine("   "); got != "" {
		t.Errorf("firstLine of blanks = %q", got)
	}
}
