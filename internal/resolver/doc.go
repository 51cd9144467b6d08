// Package resolver serves decrypted renderer assets to the protected app.
//
// A Resolver reads the encrypted bundle written by the protect pipeline,
// decrypts it with the configured key and keeps the unpacked files in memory
// for the life of the process. Loading happens once, on first use. If the
// bundle is missing or cannot be decrypted the failure is logged once and
// every lookup reports ErrResourceNotFound; the load is never retried.
//
// Requests use the app's virtual scheme:
//
//	myclient://apps/index.html?lang=en#top  ->  index.html
//	myclient://./assets/logo.svg            ->  assets/logo.svg
//
// After loading, the file map is read-only and Resolve is safe for
// concurrent use without locking.
//
// Handler exposes the same lookups over HTTP with content-hash ETags, which
// is how `asarlock serve` previews a protected build.
package resolver
