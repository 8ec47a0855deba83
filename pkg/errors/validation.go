package errors

import (
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidatePath validates a workspace-relative file path declared in a rule.
// It rejects paths that could escape the workspace or the output tree.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Must be relative
//   - No parent directory components
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative: %s", path)
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain '..': %s", path)
		}
	}

	return nil
}

// ValidateSHA1 checks that digest is a 40 character lowercase hex string.
// Archive checksums are compared verbatim, so the stored form must be canonical.
func ValidateSHA1(digest string) error {
	if len(digest) != 40 {
		return New(ErrCodeInvalidConfig, "sha1 must be 40 hex characters, got %d", len(digest))
	}
	if strings.ToLower(digest) != digest {
		return New(ErrCodeInvalidConfig, "sha1 must be lowercase: %s", digest)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "sha1 is not hex: %s", digest)
	}
	return nil
}

// ValidateURL checks that raw is an absolute URL with a scheme the fetch tool understands.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid url %q", raw)
	}
	switch u.Scheme {
	case "http", "https", "ftp", "file":
	default:
		return New(ErrCodeInvalidConfig, "unsupported url scheme %q", u.Scheme)
	}
	if u.Scheme != "file" && u.Host == "" {
		return New(ErrCodeInvalidConfig, "url has no host: %s", raw)
	}
	return nil
}
