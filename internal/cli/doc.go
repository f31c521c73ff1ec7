// Package cli wires together the Cobra command tree for the verdict binary.
//
// It defines the root command and all subcommands (review, synthesize,
// config, agents, hook, github, version), binds flags, reads configuration,
// invokes the consensus pipeline, and returns deterministic exit codes for
// CI gating.
package cli
