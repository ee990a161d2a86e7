// Package version parses and orders editor release identifiers.
//
// A release identifier has the shape
//
//	MAJOR.MINOR.PATCH<type>REVISION [(hash)]
//
// where <type> is one of a (alpha), b (beta), p (patch) or f (final), each
// numeric field has one to four digits, and the optional parenthesized hash
// names the exact build. Examples: "2019.4.40f1", "2023.1.0b3",
// "2021.3.5f1 (40eb3a945986)".
//
// # Ordering
//
// Versions are totally ordered by (major, minor, patch), then release type
// (Alpha < Beta < Final < Patch), then revision. Patch releases are builds
// published after a final release, so 2017.1.2f3 < 2017.1.2p3 < 2017.1.3b1. The revision hash is build
// metadata: it is carried through parsing and formatting but never takes
// part in equality or ordering, so "2021.3.5f1" and "2021.3.5f1 (abc)"
// compare equal.
//
// [Version] is an immutable value type. It implements
// [encoding.TextMarshaler] and [encoding.TextUnmarshaler] so it can be used
// directly in JSON records and TOML configuration.
package version
