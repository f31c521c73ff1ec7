// Package output formats consensus reports for display or machine
// consumption.
//
// Four formats are supported:
//   - text     — human-readable terminal output (default)
//   - json     — full structured JSON report
//   - markdown — PR-comment-friendly with collapsible sections
//   - sarif    — SARIF v2.1.0 for upload to code-scanning tools
//
// Every writer is a pure, deterministic projection of the
// [review.ConsensusReport] value: no files or sources are touched at
// render time.
package output
