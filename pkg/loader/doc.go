// Package loader fetches module artifacts into a local cache.
//
// [Loader.Download] takes an advisory lock next to the artifact, returns a
// cached copy when it verifies, and otherwise streams the download into a
// ".part" file that survives interruption. The next attempt resumes with a
// byte-range request. The finished file is renamed into place and verified
// against the catalog checksum; an empty file or a mismatch earns exactly
// one fresh download before the error is reported.
//
// Failures carry codes from pkg/errors: EMPTY_OR_MISSING, CHECKSUM_MISMATCH,
// NETWORK_ERROR and CANCELLED.
package loader
