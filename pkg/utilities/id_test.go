package utilities

import "testing"

func TestNewSnowflakeIDWithNode(t *testing.T) {
	a := NewSnowflakeIDWithNode(1)
	b := NewSnowflakeIDWithNode(1)
	if a == "" || a == b {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
	// out of range node falls back to a KSUID (27 chars)
	if got := NewSnowflakeIDWithNode(5000); len(got) != 27 {
		t.Fatalf("expected ksuid fallback, got %q", got)
	}
}
