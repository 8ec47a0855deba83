// Package artifact models the file-level contract of one build step.
//
// An [Artifact] pairs the ordered input files of a step with the ordered
// output files it produces. Artifacts are computed views over current rule
// state, never persisted identities: rules hand out a fresh value on every
// query. The [Fingerprint] of an artifact is what drives incremental
// rebuilds.
package artifact

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/zap/pkg/errors"
)

// Artifact is the input and output file sets of one build step.
// Paths are workspace-relative.
type Artifact struct {
	Inputs  []string
	Outputs []string
}

// PassThrough returns outputs that are copied verbatim from inputs
// (headers and resources), in output order.
func (a Artifact) PassThrough() []string {
	var out []string
	for _, o := range a.Outputs {
		if slices.Contains(a.Inputs, o) {
			out = append(out, o)
		}
	}
	return out
}

// Derived returns outputs that are produced from an input, in output order.
func (a Artifact) Derived() []string {
	var out []string
	for _, o := range a.Outputs {
		if !slices.Contains(a.Inputs, o) {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks that every output is either a pass-through of an input or
// derived from exactly one input with the same stem and the given extension.
func (a Artifact) Validate(ext string) error {
	ext = "." + strings.TrimPrefix(ext, ".")
	for _, o := range a.Outputs {
		if slices.Contains(a.Inputs, o) {
			continue
		}
		if filepath.Ext(o) != ext {
			return errors.New(errors.ErrCodeInvalidInput, "output %s does not have extension %s", o, ext)
		}
		stem := Stem(o)
		matches := 0
		for _, in := range a.Inputs {
			if Stem(in) == stem && in != o {
				matches++
			}
		}
		if matches != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "output %s must derive from exactly one input, found %d", o, matches)
		}
	}
	return nil
}

// Stem returns path without its extension.
func Stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// WithExt returns path with its extension replaced by ext.
func WithExt(path, ext string) string {
	return Stem(path) + "." + strings.TrimPrefix(ext, ".")
}

// Fingerprint computes a content digest of the artifact rooted at root.
// It covers every input path and its contents, every output path, and any
// extra fields the caller supplies (rule kind, dependency fingerprints, ...).
// All fields are length-prefixed so that distinct field splits never collide.
func (a Artifact) Fingerprint(root string, extra ...string) (string, error) {
	h := sha256.New()

	writeField(h, []byte("inputs"))
	writeCount(h, len(a.Inputs))
	for _, in := range a.Inputs {
		data, err := os.ReadFile(filepath.Join(root, in))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read input %s", in)
		}
		writeField(h, []byte(in))
		writeField(h, data)
	}

	writeField(h, []byte("outputs"))
	writeCount(h, len(a.Outputs))
	for _, out := range a.Outputs {
		writeField(h, []byte(out))
	}

	writeField(h, []byte("extra"))
	writeCount(h, len(extra))
	for _, e := range extra {
		writeField(h, []byte(e))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeCount(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}

func writeField(h hash.Hash, data []byte) {
	writeCount(h, len(data))
	h.Write(data)
}
