package errors

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "a.erl", false},
		{"nested", "src/app/a.erl", false},
		{"dotfile", ".formatter", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "src/../../etc", true},
		{"leading traversal", "../a.erl", true},
		{"null byte", "a\x00.erl", true},
		{"newline", "a\n.erl", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("expected INVALID_PATH, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateSHA1(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "da39a3ee5e6b4b0d3255bfef95601890afd80709", false},
		{"uppercase", "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709", true},
		{"short", "da39a3ee", true},
		{"not hex", "zz39a3ee5e6b4b0d3255bfef95601890afd80709", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSHA1(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSHA1(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/otp.tar.gz", false},
		{"file", "file:///tmp/otp.tar.gz", false},
		{"empty", "", true},
		{"no scheme", "example.com/otp.tar.gz", true},
		{"unsupported scheme", "git://example.com/otp", true},
		{"no host", "https:///otp.tar.gz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateURL(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
