// Package installer places downloaded artifacts into an installation.
//
// [Select] maps an artifact to one of a closed set of strategies: package
// archives, compressed tarballs, zip files, self-extracting executables,
// installer databases, translation files and disk images. [Pipeline.Run]
// then drives the strategy through a fixed lifecycle:
//
//  1. before install: the module's declared destination is emptied for
//     formats that need a clean start, and the placement directory is
//     created;
//  2. install: the artifact is unpacked into a private staging directory
//     and the payload is moved into place;
//  3. after install: a declared rename is applied through a side directory,
//     so overlapping source and target paths are handled;
//  4. on error: the module's destination is removed (the whole root for the
//     editor), logging rather than returning cleanup failures.
//
// External tools (xar, cpio, tar for xz, hdiutil, msiexec, installers) are
// run through a [Runner] and always unpack into an empty directory. A
// non-zero exit becomes an EXTRACTION_FAILED error carrying the tool's
// stderr.
//
// Task progress is described by [State]; a [Tracker] enforces that states
// only move forward.
package installer
