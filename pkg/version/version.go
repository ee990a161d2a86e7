package version

import (
	"cmp"
	stderrors "errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/matzehuels/uvm/pkg/errors"
)

// ReleaseType is the pre-release/release channel of a version.
type ReleaseType uint8

// Release types in ascending order. Patch releases ship after the final
// release they patch, so Patch sorts last.
const (
	Alpha ReleaseType = iota
	Beta
	Final
	Patch
)

var releaseLetters = [...]byte{Alpha: 'a', Beta: 'b', Final: 'f', Patch: 'p'}

// Letter returns the single-letter form used in version strings.
func (t ReleaseType) Letter() byte {
	if int(t) < len(releaseLetters) {
		return releaseLetters[t]
	}
	return '?'
}

// String returns the release type name.
func (t ReleaseType) String() string {
	switch t {
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Patch:
		return "patch"
	case Final:
		return "final"
	}
	return "unknown"
}

func releaseTypeFromLetter(c byte) (ReleaseType, bool) {
	for t, l := range releaseLetters {
		if l == c {
			return ReleaseType(t), true
		}
	}
	return 0, false
}

// ErrMalformed is returned (wrapped in a [*ParseError]) for any string that
// does not match the version grammar.
var ErrMalformed = stderrors.New("malformed version")

// ParseError reports the input that failed to parse.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed version %q", e.Input)
}

// Unwrap returns [ErrMalformed].
func (e *ParseError) Unwrap() error { return ErrMalformed }

var pattern = regexp.MustCompile(`^(\d{1,4})\.(\d{1,4})\.(\d{1,4})([abpf])(\d{1,4})(?:\s*\(([0-9a-fA-F]+)\))?$`)

// Version is a parsed release identifier.
type Version struct {
	Major    uint64
	Minor    uint64
	Patch    uint64
	Type     ReleaseType
	Revision uint64
	// Hash is the optional build hash. It is not part of equality or ordering.
	Hash string
}

// Parse parses s. Any input that does not match the grammar fails with a
// [*ParseError] wrapping [ErrMalformed], itself wrapped in a coded error
// with [errors.ErrCodeInvalidVersion].
func Parse(s string) (Version, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, &ParseError{Input: s}, "parse version")
	}

	var v Version
	// The regexp bounds every numeric field to four digits, so these never fail.
	v.Major, _ = strconv.ParseUint(m[1], 10, 64)
	v.Minor, _ = strconv.ParseUint(m[2], 10, 64)
	v.Patch, _ = strconv.ParseUint(m[3], 10, 64)
	v.Type, _ = releaseTypeFromLetter(m[4][0])
	v.Revision, _ = strconv.ParseUint(m[5], 10, 64)
	v.Hash = m[6]
	return v, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats v without the hash, e.g. "2021.3.5f1".
// Parse(v.String()) equals v for every field except Hash.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%c%d", v.Major, v.Minor, v.Patch, v.Type.Letter(), v.Revision)
}

// FullString formats v including the hash when present,
// e.g. "2021.3.5f1 (40eb3a945986)".
func (v Version) FullString() string {
	if v.Hash == "" {
		return v.String()
	}
	return v.String() + " (" + v.Hash + ")"
}

// MajorMinor returns "MAJOR.MINOR", the granularity used by documentation
// and language pack URLs.
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// WithHash returns a copy of v carrying hash.
func (v Version) WithHash(hash string) Version {
	v.Hash = hash
	return v
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return v == Version{}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal
// to, or after b. The hash is ignored.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Patch, b.Patch); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return cmp.Compare(a.Revision, b.Revision)
}

// Compare is the method form of [Compare].
func (v Version) Compare(o Version) int { return Compare(v, o) }

// Equal reports whether v and o are equal, ignoring the hash.
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

// AtLeast reports whether v >= the release "major.minor.0a0".
func (v Version) AtLeast(major, minor uint64) bool {
	return Compare(v, Version{Major: major, Minor: minor}) >= 0
}

// Sort sorts vs in ascending order. The sort is stable so versions that
// differ only by hash keep their relative order.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, Compare)
}

// MarshalText implements [encoding.TextMarshaler] using [Version.FullString].
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.FullString()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *Version) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}
