package validation

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{"  bob@example.com  ", "bob@example.com"},
		{"carol@example.com", "carol@example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"alice+tag@example.co.uk", true},
		{"", false},
		{"not-an-email", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.want {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"alice_99", true},
		{"ab", false},
		{"", false},
		{"has space", false},
		{"way_too_long_username_over_thirty_two_chars", false},
	}
	for _, tt := range tests {
		if got := ValidateUsername(tt.username); got != tt.want {
			t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, got, tt.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "")

	if ValidatePassword("short") {
		t.Errorf("short password accepted")
	}
	if !ValidatePassword("long-enough-password") {
		t.Errorf("long password rejected")
	}

	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	if ValidatePassword("elevenchars") {
		t.Errorf("password below configured minimum accepted")
	}

	// Values under 8 fall back to the default.
	t.Setenv("PASSWORD_MIN_LENGTH", "2")
	if PasswordMinLength() != 10 {
		t.Errorf("PasswordMinLength = %d, want default 10 for a too-small setting", PasswordMinLength())
	}
}

func TestTrimAndLimit(t *testing.T) {
	if got := TrimAndLimit("  hello  ", 0); got != "hello" {
		t.Errorf("TrimAndLimit = %q, want %q", got, "hello")
	}
	if got := TrimAndLimit("hello world", 5); got != "hello" {
		t.Errorf("TrimAndLimit = %q, want %q", got, "hello")
	}
}

func TestParseScheduledTime(t *testing.T) {
	got, err := ParseScheduledTime("")
	if err != nil || got != nil {
		t.Errorf("ParseScheduledTime(\"\") = (%v, %v), want nil time for immediate send", got, err)
	}

	got, err = ParseScheduledTime("2026-09-01T10:30:00Z")
	if err != nil {
		t.Fatalf("ParseScheduledTime error = %v", err)
	}
	want := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("ParseScheduledTime = %v, want %v", got, want)
	}

	if _, err := ParseScheduledTime("tomorrow at noon"); err == nil {
		t.Errorf("non-RFC3339 input accepted")
	}
}
