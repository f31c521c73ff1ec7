// Package gitctx discovers repository metadata and the set of files to
// hand to review agents, honoring .gitignore and configured excludes.
package gitctx
