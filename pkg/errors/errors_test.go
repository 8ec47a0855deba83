package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeResolution, "unknown rule: %s", "//app:b")

	if err.Code != ErrCodeResolution {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeResolution)
	}

	if err.Message != "unknown rule: //app:b" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown rule: //app:b")
	}

	expected := "RESOLUTION_ERROR: unknown rule: //app:b"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(ErrCodeIO, cause, "copy a.hrl")

	if err.Code != ErrCodeIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIO)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeIO, "test"),
			code:     ErrCodeIO,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeIO, "test"),
			code:     ErrCodeCycle,
			expected: false,
		},
		{
			name:     "outer code",
			err:      Wrap(ErrCodeSubprocess, New(ErrCodeIO, "inner"), "outer"),
			code:     ErrCodeSubprocess,
			expected: true,
		},
		{
			name:     "inner code",
			err:      Wrap(ErrCodeResolution, New(ErrCodeCycle, "inner"), "outer"),
			code:     ErrCodeCycle,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeIO,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeIO,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeChecksumMismatch, "test"), ErrCodeChecksumMismatch},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeIO, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestCycle(t *testing.T) {
	err := Cycle([]string{"//a", "//b", "//a"})

	if !Is(err, ErrCodeCycle) {
		t.Fatalf("expected CYCLE code, got %v", GetCode(err))
	}
	ce, ok := AsCycle(err)
	if !ok {
		t.Fatal("AsCycle should find the cycle details")
	}
	if len(ce.Path) != 3 || ce.Path[0] != ce.Path[2] {
		t.Errorf("unexpected path: %v", ce.Path)
	}
	if !strings.Contains(err.Error(), "//a -> //b -> //a") {
		t.Errorf("Error() should render the path: %s", err.Error())
	}
}

func TestSubprocessError(t *testing.T) {
	t.Run("prefers stderr", func(t *testing.T) {
		err := &SubprocessError{Command: "tar xzf toolchain.tar.gz", ExitCode: 2, Stdout: []byte("out"), Stderr: []byte("bad header\n")}
		want := "tar xzf toolchain.tar.gz exited with status 2\nbad header"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("falls back to stdout", func(t *testing.T) {
		err := &SubprocessError{Command: "wget", ExitCode: 8, Stdout: []byte("404")}
		if !strings.HasSuffix(err.Error(), "\n404") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("reachable through Wrap", func(t *testing.T) {
		wrapped := Wrap(ErrCodeSubprocess, &SubprocessError{Command: "erlc", ExitCode: 1}, "compile //app:b")
		se, ok := AsSubprocess(wrapped)
		if !ok || se.Command != "erlc" {
			t.Errorf("AsSubprocess() = %v, %v", se, ok)
		}
		if se.Code() != ErrCodeSubprocess {
			t.Errorf("Code() = %v", se.Code())
		}
	})
}
