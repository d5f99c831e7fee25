package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

func TestProbeContentOpenAIShape(t *testing.T) {
	raw := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "hello"}},
		},
	}
	content, err := probeContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestProbeContentLegacyTextShape(t *testing.T) {
	raw := map[string]any{
		"choices": []any{
			map[string]any{"text": "legacy"},
		},
	}
	content, err := probeContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "legacy", content)
}

func TestProbeContentResponseField(t *testing.T) {
	raw := map[string]any{"response": "from response field"}
	content, err := probeContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "from response field", content)
}

func TestProbeContentContentField(t *testing.T) {
	raw := map[string]any{"content": "from content field"}
	content, err := probeContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "from content field", content)
}

func TestProbeContentUnrecognizedShape(t *testing.T) {
	_, err := probeContent(map[string]any{"unexpected": true})
	require.Error(t, err)
}

func TestTestConnectionTreats2xxAsAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newGenericClient(types.ModelInfo{Endpoint: srv.URL})
	require.NoError(t, client.TestConnection(t.Context()))
}

func TestTestConnectionTreats400AsAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newGenericClient(types.ModelInfo{Endpoint: srv.URL})
	require.NoError(t, client.TestConnection(t.Context()))
}

func TestTestConnectionTreats500AsDead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newGenericClient(types.ModelInfo{Endpoint: srv.URL})
	err := client.TestConnection(t.Context())
	require.Error(t, err)
	assert.Equal(t, types.KindTransient, types.KindOf(err))
}
