package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dshills/verdict/internal/agents"
	"github.com/dshills/verdict/internal/config"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Agent and model management",
}

type agentInfo struct {
	Kind   string
	Models []string
}

var knownAgents = []agentInfo{
	{
		Kind: "claude",
		Models: []string{
			"claude-sonnet-4-6",
			"claude-opus-4-6",
			"claude-haiku-4-5",
		},
	},
	{
		Kind: "codex",
		Models: []string{
			"gpt-5.3-codex",
			"gpt-5.2-codex",
			"gpt-5.2",
			"gpt-4.1-mini",
		},
	},
	{
		Kind: "gemini",
		Models: []string{
			"gemini-3-flash-preview",
			"gemini-3-pro-preview",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
	},
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known agent kinds and models",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range knownAgents {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Kind)
			for _, m := range info.Models {
				fmt.Fprintf(os.Stdout, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stdout)
		}
	},
}

var agentsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate agent credentials",
	Long:  "Doctor sends a minimal request to every configured agent and reports which ones are authenticated and responding.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		specs := cfg.Agents
		if flagAgents != "" {
			specs = splitComma(flagAgents)
		}

		registry := agents.NewRegistry()
		failed := false

		for _, spec := range specs {
			fmt.Fprintf(os.Stdout, "Checking %s...\n", spec)

			if err := checkAgent(registry, spec); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
				failed = true
				if agents.IsAuthError(err) {
					exitCode = ExitAuthError
				} else if exitCode == ExitSuccess {
					exitCode = ExitRuntimeError
				}
				continue
			}

			fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", spec)
		}

		if !failed {
			fmt.Fprintln(os.Stdout, "All agents healthy.")
		}
		return nil
	},
}

func checkAgent(registry *agents.Registry, spec string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	agent, err := registry.New(ctx, spec)
	if err != nil {
		return err
	}

	_, err = agent.Review(ctx, agents.Request{
		SystemPrompt: "Respond with exactly: ok",
		UserPrompt:   "ping",
		MaxTokens:    10,
	})
	return err
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsDoctorCmd)
	agentsDoctorCmd.Flags().StringVar(&flagAgents, "agents", "", "Agent specs to check (comma-separated kind:model)")
}
