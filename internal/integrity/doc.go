// Package integrity fingerprints a protected container and persists the
// fingerprint in a small JSON manifest next to it.
//
//	fingerprint = md5hex(md5hex(container bytes) + secrets.DeriveKey(secret))
//
// Fingerprint streams the container and is used at build time;
// FingerprintSync reads it in one call and is used by the startup check,
// which must finish before any resource is served. Both return the same
// value for the same file.
//
// The manifest has exactly the fields name, version and md5 and is written
// with four-space indentation so that it diffs cleanly between builds.
package integrity
