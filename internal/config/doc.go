// Package config loads and merges verdict configuration.
//
// The effective config is built as defaults <- config.yaml <- VERDICT_*
// environment variables <- CLI flag overrides. The file lives in the
// platform config directory ($XDG_CONFIG_HOME/verdict or equivalent).
package config
