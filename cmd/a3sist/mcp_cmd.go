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

// connectTimeout bounds a single MCP Connect probe from the CLI.
const connectTimeout = 15 * time.Second

// runMCP dispatches "a3sist mcp <subcommand>", mirroring runModel's
// load-mutate-persist-exit shape.
func runMCP(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: a3sist mcp <list|add|remove|connect> [flags]")
	}
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("mcp "+sub, flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	id := fs.String("id", "", "server id")
	name := fs.String("name", "", "display name")
	endpoint := fs.String("endpoint", "", "base URL")
	apiKey := fs.String("apikey", "", "API key, encrypted at rest")
	requiresAuth := fs.Bool("requiresauth", false, "server requires Authorization header")
	autoReconnect := fs.Bool("autoreconnect", true, "reconnect automatically on heartbeat failure")
	keepAlive := fs.Duration("keepalive", 30*time.Second, "heartbeat keep-alive interval")
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
		return mcpList(rt)
	case "add":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		info := types.MCPServerInfo{
			ID:                *id,
			Name:              *name,
			Endpoint:          *endpoint,
			APIKey:            *apiKey,
			RequiresAuth:      *requiresAuth,
			AutoReconnect:     *autoReconnect,
			KeepAliveInterval: *keepAlive,
		}
		return mcpAdd(rt, info)
	case "remove":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		return mcpRemove(rt, *id)
	case "connect":
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		return mcpConnect(rt, *id)
	default:
		return fmt.Errorf("unknown mcp subcommand %q", sub)
	}
}

func mcpList(rt *Runtime) error {
	for _, s := range rt.MCP.Servers() {
		fmt.Fprintf(os.Stdout, "%-20s endpoint=%-30s connected=%v tools=%v\n",
			s.ID, s.Endpoint, s.IsConnected, s.SupportedTools)
	}
	return nil
}

func mcpAdd(rt *Runtime, info types.MCPServerInfo) error {
	if err := rt.MCP.AddServer(info); err != nil {
		return fmt.Errorf("register MCP server: %w", err)
	}
	servers := append(append([]types.MCPServerInfo{}, rt.cfg.MCPServers...), info)
	if err := config.UpdateMCPServers(servers); err != nil {
		return fmt.Errorf("persist MCP server: %w", err)
	}
	rt.cfg.MCPServers = servers
	fmt.Fprintf(os.Stdout, "added MCP server %q\n", info.ID)
	return nil
}

func mcpRemove(rt *Runtime, id string) error {
	if err := rt.MCP.RemoveServer(id); err != nil {
		return fmt.Errorf("unregister MCP server: %w", err)
	}
	remaining := make([]types.MCPServerInfo, 0, len(rt.cfg.MCPServers))
	for _, s := range rt.cfg.MCPServers {
		if s.ID != id {
			remaining = append(remaining, s)
		}
	}
	if err := config.UpdateMCPServers(remaining); err != nil {
		return fmt.Errorf("persist removal: %w", err)
	}
	rt.cfg.MCPServers = remaining
	fmt.Fprintf(os.Stdout, "removed MCP server %q\n", id)
	return nil
}

func mcpConnect(rt *Runtime, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rt.MCP.Connect(ctx, id); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Fprintf(os.Stdout, "connected to MCP server %q\n", id)
	return nil
}
