package manifest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/uvm/pkg/errors"
)

// Algorithm names a content hash function.
type Algorithm string

// Supported checksum algorithms.
const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

func (a Algorithm) new() (hash.Hash, bool) {
	switch a {
	case MD5:
		return md5.New(), true
	case SHA1:
		return sha1.New(), true
	case SHA256:
		return sha256.New(), true
	case SHA384:
		return sha512.New384(), true
	case SHA512:
		return sha512.New(), true
	}
	return nil, false
}

func (a Algorithm) size() int {
	h, ok := a.new()
	if !ok {
		return 0
	}
	return h.Size()
}

// ErrChecksumMismatch indicates a computed digest differs from the expected one.
var ErrChecksumMismatch = stderrors.New("checksum mismatch")

// ChecksumError provides details about a checksum verification failure.
// It wraps ErrChecksumMismatch so callers can use errors.Is for classification.
type ChecksumError struct {
	Filename string
	Expected Checksum
	Got      Checksum
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s: expected %s, got %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Checksum is an expected content digest.
type Checksum struct {
	Algorithm Algorithm
	Digest    []byte
}

// ParseChecksum accepts the notations found in catalogs:
//
//	md5:9e107d9d372bb6826bd81d3542a419d6      algorithm-prefixed hex
//	sha256:<64 hex>
//	sha384-<base64>                           subresource-integrity form
//	9e107d9d372bb6826bd81d3542a419d6          bare hex, algorithm by length
func ParseChecksum(s string) (Checksum, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Checksum{}, errors.New(errors.ErrCodeInvalidCatalog, "empty checksum")
	}

	if alg, rest, ok := strings.Cut(s, ":"); ok {
		return decodeHex(Algorithm(strings.ToLower(alg)), rest, s)
	}

	if alg, rest, ok := strings.Cut(s, "-"); ok {
		a := Algorithm(strings.ToLower(alg))
		if _, known := a.new(); known {
			digest, err := base64.StdEncoding.DecodeString(rest)
			if err != nil || len(digest) != a.size() {
				return Checksum{}, errors.New(errors.ErrCodeInvalidCatalog, "malformed integrity checksum %q", s)
			}
			return Checksum{Algorithm: a, Digest: digest}, nil
		}
	}

	switch len(s) {
	case 32:
		return decodeHex(MD5, s, s)
	case 40:
		return decodeHex(SHA1, s, s)
	case 64:
		return decodeHex(SHA256, s, s)
	case 96:
		return decodeHex(SHA384, s, s)
	case 128:
		return decodeHex(SHA512, s, s)
	}
	return Checksum{}, errors.New(errors.ErrCodeInvalidCatalog, "unrecognized checksum %q", s)
}

func decodeHex(a Algorithm, digestHex, raw string) (Checksum, error) {
	if _, ok := a.new(); !ok {
		return Checksum{}, errors.New(errors.ErrCodeInvalidCatalog, "unsupported checksum algorithm %q", a)
	}
	digest, err := hex.DecodeString(strings.TrimSpace(digestHex))
	if err != nil || len(digest) != a.size() {
		return Checksum{}, errors.New(errors.ErrCodeInvalidCatalog, "malformed %s checksum %q", a, raw)
	}
	return Checksum{Algorithm: a, Digest: digest}, nil
}

// String renders the checksum as "algorithm:hex".
func (c Checksum) String() string {
	if c.Algorithm == "" {
		return ""
	}
	return string(c.Algorithm) + ":" + hex.EncodeToString(c.Digest)
}

// Equal reports whether both checksums use the same algorithm and digest.
func (c Checksum) Equal(o Checksum) bool {
	return c.Algorithm == o.Algorithm && string(c.Digest) == string(o.Digest)
}

// Sum hashes r with the checksum's algorithm.
func (c Checksum) Sum(r io.Reader) (Checksum, error) {
	h, ok := c.Algorithm.new()
	if !ok {
		return Checksum{}, fmt.Errorf("unsupported checksum algorithm %q", c.Algorithm)
	}
	if _, err := io.Copy(h, r); err != nil {
		return Checksum{}, err
	}
	return Checksum{Algorithm: c.Algorithm, Digest: h.Sum(nil)}, nil
}

// VerifyFile hashes the file at path and compares it with c. It returns a
// *ChecksumError wrapping [ErrChecksumMismatch] when the digests differ.
func (c Checksum) VerifyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	got, err := c.Sum(f)
	if err != nil {
		return fmt.Errorf("hashing file %s: %w", path, err)
	}
	if !got.Equal(c) {
		return &ChecksumError{Filename: path, Expected: c, Got: got}
	}
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (c Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *Checksum) UnmarshalText(b []byte) error {
	p, err := ParseChecksum(string(b))
	if err != nil {
		return err
	}
	*c = p
	return nil
}
