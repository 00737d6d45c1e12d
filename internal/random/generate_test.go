package random

import (
	"strconv"
	"testing"
)

func TestNumberInRange(t *testing.T) {
	tests := []struct {
		name        string
		min         int64
		max         int64
		expectError bool
	}{
		{name: "single value", min: 7, max: 7},
		{name: "small range", min: 0, max: 3},
		{name: "negative bounds", min: -10, max: -5},
		{name: "branch tag range", min: 0, max: 9999999999},
		{name: "inverted bounds", min: 5, max: 1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				got, err := NumberInRange(tt.min, tt.max)
				if tt.expectError {
					if err == nil {
						t.Fatalf("expected error for bounds %d..%d, got %d", tt.min, tt.max, got)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got < tt.min || got > tt.max {
					t.Fatalf("value %d outside %d..%d", got, tt.min, tt.max)
				}
			}
		})
	}
}

func TestDecimalTag(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tag, err := DecimalTag(10000000000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		number, err := strconv.ParseInt(tag, 10, 64)
		if err != nil {
			t.Fatalf("tag must be decimal: %q", tag)
		}
		if number >= 10000000000 {
			t.Errorf("tag %q exceeds limit", tag)
		}
		seen[tag] = true
	}
	if len(seen) < 2 {
		t.Errorf("tags should vary, got %v", seen)
	}

	if _, err := DecimalTag(0); err == nil {
		t.Errorf("expected error for zero limit")
	}
}
