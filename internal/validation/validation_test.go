package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeQuery_Blank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		got, err := NormalizeQuery(in, 100)
		if err != nil || got != "" {
			t.Errorf("NormalizeQuery(%q) = %q, %v; want blank, nil", in, got, err)
		}
	}
}

func TestNormalizeQuery_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"London", "London"},
		{"  Seattle,   US ", "Seattle, US"},
		{"90210", "90210"},
		{"w7174408", "w7174408"},
		{"St. Louis", "St. Louis"},
		{"O'Fallon, Missouri", "O'Fallon, Missouri"},
		{"Zürich", "Zürich"},
		{"São Paulo", "São Paulo"},
		{"Winston-Salem", "Winston-Salem"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeQuery(tt.in, 100)
			if err != nil {
				t.Fatalf("NormalizeQuery() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeQuery_TooLong(t *testing.T) {
	_, err := NormalizeQuery(strings.Repeat("a", 101), 100)
	if !errors.Is(err, ErrQueryTooLong) {
		t.Errorf("error = %v, want ErrQueryTooLong", err)
	}
	if _, err := NormalizeQuery(strings.Repeat("a", DefaultMaxQueryLen), 0); err != nil {
		t.Errorf("default max length: error = %v", err)
	}
}

func TestNormalizeQuery_InvalidChars(t *testing.T) {
	for _, in := range []string{"Seattle; DROP TABLE", "a<b>", "loc\x00ation", "city|state", "a&b"} {
		if _, err := NormalizeQuery(in, 100); !errors.Is(err, ErrQueryInvalidChars) {
			t.Errorf("NormalizeQuery(%q) error = %v, want ErrQueryInvalidChars", in, err)
		}
	}
}

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "nick", "nick", nil},
		{"trimmed", "  nick_ ", "nick_", nil},
		{"matrix id", "@nick:example.org", "@nick:example.org", nil},
		{"empty", " ", "", ErrUserEmpty},
		{"space inside", "two words", "", ErrUserInvalid},
		{"control", "ni\x07ck", "", ErrUserInvalid},
		{"too long", strings.Repeat("n", 65), "", ErrUserInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUser(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateUser() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateUser() = %q, want %q", got, tt.want)
			}
		})
	}
}
