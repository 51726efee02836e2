package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferenceCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := GenerateReferenceCode()
		if err != nil {
			t.Fatalf("GenerateReferenceCode failed: %v", err)
		}
		if !strings.HasPrefix(code, "RE-") {
			t.Fatalf("expected RE- prefix, got %q", code)
		}
		if len(code) <= len("RE-") {
			t.Fatalf("code has no payload: %q", code)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
