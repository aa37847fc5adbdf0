// Command lowire runs a single autonomous agent task against a configured
// LLM provider and prints the structured result to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/providers"
	"github.com/lowire/lowire/internal/cache"
	"github.com/lowire/lowire/internal/config"
	"github.com/lowire/lowire/internal/observability"
	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lowire",
		Short:        "Run a single autonomous agent task against an LLM provider",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildRunCmd())
	return rootCmd
}

// defaultRegistry binds the five real adapters plus their legacy aliases
// (copilot -> github, claude -> anthropic, gemini -> google).
func defaultRegistry() *agent.Registry {
	r := agent.NewRegistry(map[string]agent.ProviderConstructor{
		"openai":           providers.NewOpenAIProvider,
		"openai-responses": providers.NewOpenAIResponsesProvider,
		"anthropic":        providers.NewAnthropicProvider,
		"google":           providers.NewGoogleProvider,
		"github":           providers.NewGitHubCopilotProvider,
	})
	r.Register("copilot", providers.NewGitHubCopilotProvider)
	r.Register("claude", providers.NewAnthropicProvider)
	r.Register("gemini", providers.NewGoogleProvider)
	return r
}

func buildRunCmd() *cobra.Command {
	var (
		task       string
		configPath string
		provider   string
		model      string
		toolsFile  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task to completion and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd.Context(), task, configPath, provider, model, toolsFile)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Natural-language task for the agent to complete (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML or JSON5 run configuration file")
	cmd.Flags().StringVar(&provider, "provider", "", "Registry provider name, overrides config")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier, overrides config")
	cmd.Flags().StringVar(&toolsFile, "tools-file", "", "Path to a JSON file declaring callable tools")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func runTask(ctx context.Context, task, configPath, providerOverride, modelOverride, toolsFile string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if providerOverride != "" {
		cfg.Provider = providerOverride
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level: cfg.Logging.Level, Format: cfg.Logging.Format,
	})
	ctx = observability.WithProvider(ctx, cfg.Provider)

	registry := defaultRegistry()
	provider, err := registry.Build(cfg.Provider)
	if err != nil {
		return err
	}

	tools, err := loadToolsFile(toolsFile)
	if err != nil {
		return err
	}

	runOpts := agent.RunOptions{
		Model: cfg.Model, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature,
		Reasoning: cfg.Reasoning, Debug: cfg.Debug,
		Tools: tools, MaxTurns: cfg.MaxTurns, BudgetTokens: cfg.BudgetTokens,
		Summarize: cfg.Summarize,
	}
	var cachePath string
	if cfg.Cache.Dir != "" {
		cachePath = cachePathFor(cfg.Cache, cfg.Provider)
		runOpts.Cache, err = loadCache(cachePath)
		if err != nil {
			return err
		}
	}

	logger.Info(ctx, "run starting", "provider", cfg.Provider, "model", cfg.Model)
	result, runErr := agent.NewLoop(provider).Run(ctx, task, runOpts)

	if cachePath != "" {
		if err := cache.Save(cachePath, runOpts.Cache.Output); err != nil {
			logger.Error(ctx, "failed to persist replay cache", "error", err, "path", cachePath)
		}
	}

	if runErr != nil {
		if providers.ShouldFailover(runErr) {
			logger.Error(ctx, "run failed", "error", runErr, "provider_unusable", true)
		} else {
			logger.Error(ctx, "run failed", "error", runErr)
		}
		return runErr
	}
	logger.Info(ctx, "run finished", "status", result.Status, "turns", result.Turns)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cachePathFor(cc config.CacheConfig, providerName string) string {
	return cache.Path(cc.Dir, providerName, cache.SanitizeTestName(cc.TestName))
}

func loadCache(path string) (*cache.Caches, error) {
	store, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return cache.NewCaches(store, nil), nil
}

// toolDecl is the declarative shape read from --tools-file. Tool
// implementation is out of scope for this package (spec Non-goals), so
// every declared tool's Execute simply echoes its call arguments back as
// the tool result, standing in for a real callback the caller would supply
// through the library API instead of the CLI.
type toolDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

func loadToolsFile(path string) ([]agent.Tool, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var decls []toolDecl
	if err := json.Unmarshal(raw, &decls); err != nil {
		return nil, err
	}
	tools := make([]agent.Tool, len(decls))
	for i, d := range decls {
		d := d
		tools[i] = agent.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
			Execute: func(ctx context.Context, name string, arguments json.RawMessage) (agent.ToolResult, error) {
				return agent.ToolResult{Content: []agent.ContentPart{{Type: agent.ContentText, Text: string(arguments)}}}, nil
			},
		}
	}
	return tools, nil
}
