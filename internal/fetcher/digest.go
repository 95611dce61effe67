package fetcher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

// DigestMismatchError reports a failed pin check. It carries both digests
// so operators can compare the pinned value against what was served.
type DigestMismatchError struct {
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest does not match pinned value\n  expected: %s\n  actual:   %s", e.Expected, e.Actual)
}

// Unwrap lets callers match the sentinel with errors.Is.
func (e *DigestMismatchError) Unwrap() error {
	return certerrors.ErrDigestMismatch
}

// VerifyDigest computes the SHA-256 of data and compares it to the pinned
// hex digest. The comparison is case-insensitive.
func VerifyDigest(data []byte, expectedHex string) error {
	actual := ComputeSHA256(data)
	if !strings.EqualFold(actual, expectedHex) {
		return &DigestMismatchError{
			Expected: strings.ToLower(expectedHex),
			Actual:   actual,
		}
	}
	return nil
}

// ComputeSHA256 computes the SHA256 hash of data and returns it as a hex string.
func ComputeSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ValidatePEM checks that the data looks like a PEM bundle. This catches
// HTML error pages served with a 200 status; it is a format sniff only,
// the pinned digest is what actually guarantees content.
func ValidatePEM(data []byte) error {
	if len(data) == 0 {
		return certerrors.ErrEmptyBundle
	}

	// A bundle may open with comment lines; look for the first PEM header
	// anywhere in the payload before attempting a decode.
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		return certerrors.ErrNotPEM
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return certerrors.ErrNotPEM
	}

	return nil
}
