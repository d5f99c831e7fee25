package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

func fakeMCPServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMCPAddListRemove(t *testing.T) {
	dir := t.TempDir()
	rt, err := buildRuntime(dir, "")
	require.NoError(t, err)
	defer rt.Close()

	srv := fakeMCPServer(t)
	info := types.MCPServerInfo{ID: "s1", Endpoint: srv.URL}
	require.NoError(t, mcpAdd(rt, info))
	require.NoError(t, mcpList(rt))

	require.NoError(t, mcpRemove(rt, "s1"))
	assert.Empty(t, rt.MCP.Servers())
}

func TestMCPConnectMarksServerConnected(t *testing.T) {
	dir := t.TempDir()
	rt, err := buildRuntime(dir, "")
	require.NoError(t, err)
	defer rt.Close()

	srv := fakeMCPServer(t)
	require.NoError(t, mcpAdd(rt, types.MCPServerInfo{ID: "s1", Endpoint: srv.URL}))
	require.NoError(t, mcpConnect(rt, "s1"))

	servers := rt.MCP.Servers()
	require.Len(t, servers, 1)
	assert.True(t, servers[0].IsConnected)
}
