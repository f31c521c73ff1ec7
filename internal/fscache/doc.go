// Package fscache provides a request-scoped file read cache with
// trust-boundary enforcement.
//
// A Cache lives for exactly one synthesis call. Every path a source cites
// is resolved against the declared working directory root; escapes are
// rejected with PathTraversalError. Each file is read from disk at most
// once per call: concurrent first reads coalesce through
// golang.org/x/sync/singleflight, and missing files are cached as
// negative entries so repeatedly hallucinated paths cost one stat.
package fscache
