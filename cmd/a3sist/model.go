package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/config"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// runModel dispatches "a3sist model <subcommand>". Every subcommand loads
// the Runtime fresh, performs its action against the in-memory Manager,
// persists any mutation through config.UpdateModels, and exits; there is
// no resident process between invocations except under "serve".
func runModel(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: a3sist model <list|add|remove|activate|test> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("model "+sub, flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	id := fs.String("id", "", "model id")
	name := fs.String("name", "", "display name")
	provider := fs.String("provider", "", `provider: "anthropic", "openai", "ollama", "google", or a custom endpoint tag`)
	endpoint := fs.String("endpoint", "", "base URL (required for custom providers)")
	apiKey := fs.String("apikey", "", "API key, encrypted at rest")
	modelID := fs.String("modelid", "", "upstream model identifier, e.g. claude-opus-4")
	maxTokens := fs.Int("maxtokens", 0, "default completion token ceiling")
	maxTokensPerMinute := fs.Int("maxtpm", 0, "rate limit: tokens per minute (0 = unlimited)")
	maxBudgetPerDay := fs.Float64("maxbudget", 0, "rate limit: USD per day (0 = unlimited)")
	maxConcurrent := fs.Int("maxconcurrent", 0, "rate limit: concurrent in-flight requests (0 = unlimited)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if *projectDir == "" {
		return fmt.Errorf("-projectdir is required")
	}

	rt, err := buildRuntime(*projectDir, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	switch sub {
	case "list":
		return modelList(rt)
	case "add":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		info := types.ModelInfo{
			ID:        *id,
			Name:      *name,
			Provider:  *provider,
			Endpoint:  *endpoint,
			APIKey:    *apiKey,
			ModelID:   *modelID,
			MaxTokens: *maxTokens,
			RateLimit: types.RateLimit{
				MaxTokensPerMinute: *maxTokensPerMinute,
				MaxBudgetPerDayUSD: *maxBudgetPerDay,
				MaxConcurrent:      *maxConcurrent,
			},
		}
		return modelAdd(rt, info)
	case "remove":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		return modelRemove(rt, *id)
	case "activate":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		return modelActivate(rt, *id)
	case "test":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		return modelTest(rt, *id)
	default:
		return fmt.Errorf("unknown model subcommand %q", sub)
	}
}

func modelList(rt *Runtime) error {
	active, activeErr := rt.Providers.GetActive()
	for _, m := range rt.cfg.Models {
		marker := "  "
		if activeErr == nil && m.ID == active.ID {
			marker = "* "
		}
		fmt.Fprintf(os.Stdout, "%s%-20s provider=%-10s endpoint=%-30s available=%v\n",
			marker, m.ID, m.Provider, m.Endpoint, m.IsAvailable)
	}
	return nil
}

func modelAdd(rt *Runtime, info types.ModelInfo) error {
	if err := rt.Providers.AddModel(info); err != nil {
		return fmt.Errorf("register model: %w", err)
	}
	models := append(append([]types.ModelInfo{}, rt.cfg.Models...), info)
	if err := config.UpdateModels(models); err != nil {
		return fmt.Errorf("persist model: %w", err)
	}
	rt.cfg.Models = models
	fmt.Fprintf(os.Stdout, "added model %q\n", info.ID)
	return nil
}

func modelRemove(rt *Runtime, id string) error {
	if err := rt.Providers.RemoveModel(id); err != nil {
		return fmt.Errorf("unregister model: %w", err)
	}
	remaining := make([]types.ModelInfo, 0, len(rt.cfg.Models))
	for _, m := range rt.cfg.Models {
		if m.ID != id {
			remaining = append(remaining, m)
		}
	}
	if err := config.UpdateModels(remaining); err != nil {
		return fmt.Errorf("persist removal: %w", err)
	}
	rt.cfg.Models = remaining
	fmt.Fprintf(os.Stdout, "removed model %q\n", id)
	return nil
}

func modelActivate(rt *Runtime, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
	defer cancel()
	if err := rt.Providers.SetActive(ctx, id); err != nil {
		return fmt.Errorf("activate model: %w", err)
	}
	fmt.Fprintf(os.Stdout, "activated model %q\n", id)
	return nil
}

func modelTest(rt *Runtime, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
	defer cancel()
	if err := rt.Providers.TestConnection(ctx, id); err != nil {
		fmt.Fprintf(os.Stdout, "model %q unreachable: %v\n", id, err)
		return nil
	}
	fmt.Fprintf(os.Stdout, "model %q is reachable\n", id)
	return nil
}

// activateTimeout bounds the connection test SetActive/TestConnection run
// before the CLI gives up on an unresponsive endpoint.
const activateTimeout = 15 * time.Second
