package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zap/pkg/errors"
)

func TestPassThroughAndDerived(t *testing.T) {
	a := Artifact{
		Inputs:  []string{"include/a.hrl", "src/a.erl", "src/b.erl"},
		Outputs: []string{"src/a.beam", "src/b.beam", "include/a.hrl"},
	}

	if diff := cmp.Diff([]string{"include/a.hrl"}, a.PassThrough()); diff != "" {
		t.Errorf("PassThrough() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"src/a.beam", "src/b.beam"}, a.Derived()); diff != "" {
		t.Errorf("Derived() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		a       Artifact
		wantErr bool
	}{
		{
			name: "derived and pass-through",
			a:    Artifact{Inputs: []string{"a.hrl", "a.erl"}, Outputs: []string{"a.beam", "a.hrl"}},
		},
		{
			name: "header only",
			a:    Artifact{Inputs: []string{"a.hrl"}, Outputs: []string{"a.hrl"}},
		},
		{
			name:    "wrong extension",
			a:       Artifact{Inputs: []string{"a.erl"}, Outputs: []string{"a.o"}},
			wantErr: true,
		},
		{
			name:    "no source",
			a:       Artifact{Inputs: []string{"a.erl"}, Outputs: []string{"b.beam"}},
			wantErr: true,
		},
		{
			name:    "ambiguous source",
			a:       Artifact{Inputs: []string{"a.erl", "a.ex"}, Outputs: []string{"a.beam"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate("beam")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithExt(t *testing.T) {
	if got := WithExt("src/a.erl", "beam"); got != "src/a.beam" {
		t.Errorf("WithExt() = %q", got)
	}
	if got := WithExt("src/a.erl", ".o"); got != "src/a.o" {
		t.Errorf("WithExt() = %q", got)
	}
}

func TestFingerprint(t *testing.T) {
	root := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.erl", "-module(a).")

	a := Artifact{Inputs: []string{"a.erl"}, Outputs: []string{"a.beam"}}

	f1, err := a.Fingerprint(root, "library")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	f2, _ := a.Fingerprint(root, "library")
	if f1 != f2 {
		t.Error("Fingerprint should be deterministic")
	}

	if f3, _ := a.Fingerprint(root, "binary"); f3 == f1 {
		t.Error("extra fields should change the fingerprint")
	}

	write("a.erl", "-module(a). %% changed")
	if f4, _ := a.Fingerprint(root, "library"); f4 == f1 {
		t.Error("content change should change the fingerprint")
	}

	missing := Artifact{Inputs: []string{"missing.erl"}}
	if _, err := missing.Fingerprint(root); !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("missing input should be an IO error, got %v", err)
	}
}
