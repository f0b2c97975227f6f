package hitlkit

import (
	"strings"
	"testing"
)

func TestPatterns(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Patterns() {
		if seen[p.Namespace] {
			t.Errorf("namespace %q used twice", p.Namespace)
		}
		seen[p.Namespace] = true

		cfg := Config{Namespace: p.Namespace, Store: nil}
		if err := cfg.Validate(); err == nil || strings.Contains(err.Error(), "Namespace") {
			t.Errorf("%s: namespace rejected: %v", p.ID, err)
		}
	}
}

func TestPatternByID(t *testing.T) {
	p, ok := PatternByID("pattern3")
	if !ok || p.Namespace != "cpk-p3-thread" {
		t.Errorf("PatternByID(pattern3) = %+v, %v", p, ok)
	}
	if _, ok := PatternByID("pattern9"); ok {
		t.Error("PatternByID(pattern9) found a pattern")
	}
}
