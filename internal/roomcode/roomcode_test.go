package roomcode

import (
	"testing"
	"time"
)

func TestGenerateFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		if !Valid(code) {
			t.Fatalf("Generate() produced invalid code %q", code)
		}
		seen[code] = true
	}
	// 100 draws from a 36^6 space colliding down to a handful would mean
	// the generator is broken
	if len(seen) < 95 {
		t.Errorf("expected mostly unique codes, got %d unique of 100", len(seen))
	}
}

func TestFallbackFromTime(t *testing.T) {
	code, err := FallbackFromTime(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	if err != nil {
		t.Fatalf("FallbackFromTime() error: %v", err)
	}
	if !Valid(code) {
		t.Errorf("fallback code %q is not a valid room code", code)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"uppercase alnum", "AB12CD", true},
		{"all digits", "123456", true},
		{"too short", "AB12", false},
		{"too long", "AB12CDE", false},
		{"lowercase rejected", "ab12cd", false},
		{"symbol rejected", "AB-2CD", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.valid {
				t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" ab12cd "); got != "AB12CD" {
		t.Errorf("Normalize() = %q, want AB12CD", got)
	}
}

func TestTempPassword(t *testing.T) {
	password, err := TempPassword(10)
	if err != nil {
		t.Fatalf("TempPassword() error: %v", err)
	}
	if len(password) != 10 {
		t.Errorf("expected 10 characters, got %d", len(password))
	}
}
