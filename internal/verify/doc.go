// Package verify checks each finding's cited file, line, and quoted
// evidence against the literal working tree.
//
// Verification never aborts the pipeline: failed checks decay confidence
// and tag the finding so its demotion stays auditable. The one exception
// is path traversal, which rejects the finding outright.
package verify
