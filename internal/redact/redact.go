package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

const mask = "[REDACTED]"

// patterns are regex heuristics for credential material that must never
// leave the machine inside an agent payload.
var patterns = []*regexp.Regexp{
	// key/secret/token/password assignments
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret|secret|token|password|passwd|credential)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{8,})["']?`),
	// AWS access key IDs and secret keys
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Bearer tokens and JWTs
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// Vendor token formats: GitHub, Slack, Anthropic, OpenAI
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
}

// Secrets replaces detected credential material in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range patterns {
		result = pat.ReplaceAllString(result, mask)
	}
	return result
}

// ShouldRedactPath checks if a file path matches any redaction pattern.
func ShouldRedactPath(path string, redactPaths []string) bool {
	for _, pattern := range redactPaths {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		// Patterns like "**/.env" also match by basename.
		if trimmed := strings.TrimPrefix(pattern, "**/"); trimmed != pattern {
			if matched, err := filepath.Match(trimmed, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Content scrubs secrets from file content, or replaces the whole payload
// when the path itself is policy-redacted.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return mask + " (file content withheld by path policy)\n"
	}
	return Secrets(content)
}
