// Package agents invokes external review agents and validates their
// output at the trust boundary.
//
// Three built-in agent kinds are provided: claude (Anthropic messages
// API), codex (OpenAI-compatible chat completions), and gemini (Google
// generative AI SDK). Agents are constructed through a call-scoped
// Registry rather than a global table, so a caller can swap or extend the
// set per invocation.
//
// Collect fans the same request out to every configured agent in
// parallel. Failures are collected per source; synthesis downstream is
// best-effort over whatever succeeded. Parse converts raw agent JSON into
// the closed types of the review package; everything it cannot validate
// is rejected before it reaches the pipeline.
package agents
