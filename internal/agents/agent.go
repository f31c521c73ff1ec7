package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/verdict/internal/review"
)

// Request contains the material sent to a review agent.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw response from a review agent.
type Response struct {
	Content    string
	TokensUsed int
}

// Agent is the review-agent abstraction.
type Agent interface {
	Review(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Factory builds an agent for a given model name.
type Factory func(ctx context.Context, model string) (Agent, error)

// Registry is a call-scoped table of agent factories. There is no ambient
// global registry: callers build one, optionally extend it, and discard it.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in agent kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("claude", func(_ context.Context, model string) (Agent, error) {
		return NewClaude(model)
	})
	r.Register("codex", func(_ context.Context, model string) (Agent, error) {
		return NewCodex(model)
	})
	r.Register("gemini", NewGemini)
	return r
}

// Register adds or replaces a factory for an agent kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Kinds returns the registered agent kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds an agent from a "kind:model" spec.
func (r *Registry) New(ctx context.Context, spec string) (Agent, error) {
	kind, model, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown agent kind: %s", kind)
	}
	return f(ctx, model)
}

// ParseSpec splits an agent spec into kind and model.
func ParseSpec(spec string) (string, string, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid agent spec %q: expected kind:model", spec)
	}
	return parts[0], parts[1], nil
}

// CollectResult holds the per-source reviews that succeeded and the specs
// that failed. Partial failure is data; only total failure is an error for
// the caller to raise.
type CollectResult struct {
	Reviews map[string]review.SourceReview
	Failed  []string
	Errors  map[string]error
}

// Collect runs every agent spec concurrently against the same request and
// gathers validated reviews. Each agent's raw output passes through the
// Parse boundary before it is trusted.
func Collect(ctx context.Context, registry *Registry, specs []string, req Request) CollectResult {
	type result struct {
		spec   string
		review review.SourceReview
		err    error
	}

	results := make([]result, len(specs))
	var wg sync.WaitGroup

	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec string) {
			defer wg.Done()

			agent, err := registry.New(ctx, spec)
			if err != nil {
				results[i] = result{spec: spec, err: err}
				return
			}

			resp, err := agent.Review(ctx, req)
			if err != nil {
				results[i] = result{spec: spec, err: fmt.Errorf("%s: %w", spec, err)}
				return
			}

			sr, err := Parse(spec, resp.Content)
			if err != nil {
				// One repair pass: ask the agent to fix its own JSON.
				repaired, rerr := repair(ctx, agent, spec, req, resp.Content, err)
				if rerr != nil {
					results[i] = result{spec: spec, err: fmt.Errorf("%s: invalid response: %w", spec, err)}
					return
				}
				sr = repaired
			}

			results[i] = result{spec: spec, review: sr}
		}(i, spec)
	}

	wg.Wait()

	out := CollectResult{
		Reviews: make(map[string]review.SourceReview),
		Errors:  make(map[string]error),
	}
	for _, r := range results {
		if r.err != nil {
			out.Failed = append(out.Failed, r.spec)
			out.Errors[r.spec] = r.err
			continue
		}
		out.Reviews[r.spec] = r.review
	}
	sort.Strings(out.Failed)
	return out
}

func repair(ctx context.Context, agent Agent, spec string, req Request, previous string, parseErr error) (review.SourceReview, error) {
	repairReq := Request{
		SystemPrompt: req.SystemPrompt,
		UserPrompt: fmt.Sprintf(
			"Your previous response was not valid JSON. The error was: %s\n\nPlease fix it and respond with ONLY the corrected JSON object.\n\nYour previous response was:\n%s",
			parseErr.Error(), previous,
		),
		MaxTokens: req.MaxTokens,
	}
	resp, err := agent.Review(ctx, repairReq)
	if err != nil {
		return review.SourceReview{}, err
	}
	return Parse(spec, resp.Content)
}
