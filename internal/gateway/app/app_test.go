package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	"blockvibe/internal/gateway/config"
	kvrepo "blockvibe/internal/gateway/repository/kv"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		Port: ":0",
		LLM:  config.LLMConfig{Provider: provider, Timeout: 5 * time.Second},
		Store: config.StoreConfig{
			Backend:     config.BackendMemory,
			RegistryKey: "blockVibeCustomBlocks",
		},
	}
}

func newTestApp(t *testing.T, provider string, store kvrepo.Store) (*App, *httptest.Server) {
	t.Helper()
	if store == nil {
		store = kvrepo.NewMemoryStore()
	}
	a, err := NewWithStore(context.Background(), testConfig(provider), store, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return a, srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestGenerateCodeEndpointWithoutCredential(t *testing.T) {
	_, srv := newTestApp(t, config.ProviderRouter, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/generate-code", map[string]any{"description": "press button"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out["error"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/generate-code", map[string]any{"description": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBlockFallsBackWithoutCredential(t *testing.T) {
	store := kvrepo.NewMemoryStore()
	_, srv := newTestApp(t, config.ProviderRouter, store)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/blocks", map[string]any{"description": "press button"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var res struct {
		Block    blocks.Definition `json:"block"`
		Fallback bool              `json:"fallback"`
		Reason   string            `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Fallback)
	assert.Equal(t, "configuration", res.Reason)
	assert.Equal(t, "press button", res.Block.Name)
	assert.Equal(t, "#5C68A6", res.Block.Color)
	assert.True(t, strings.HasPrefix(res.Block.ID, "custom_"))

	raw, err := store.Get(context.Background(), "blockVibeCustomBlocks")
	require.NoError(t, err)
	assert.Contains(t, string(raw), res.Block.ID)
}

func TestBlockLifecycleAndProgram(t *testing.T) {
	_, srv := newTestApp(t, config.ProviderFake, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/blocks", map[string]any{"description": "log something"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var res struct {
		Block    blocks.Definition `json:"block"`
		Fallback bool              `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Fallback)
	assert.Equal(t, "offline block", res.Block.Name)
	id := res.Block.ID

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/blocks/"+id+"/shape", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"previousStatement":null`)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/toolbox", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), id)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/program", map[string]any{"blocks": []map[string]string{{"id": id}, {"id": id}}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prog struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &prog))
	assert.Equal(t, "console.log(\"offline block\");\nconsole.log(\"offline block\");\n", prog.Code)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/program/export?format=js", map[string]any{"blocks": []map[string]string{{"id": id}}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "block-vibe-code.js")
	assert.Contains(t, string(body), "console.log(\"offline block\");")

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/program", map[string]any{"blocks": []map[string]string{{"id": "custom_0"}}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/blocks/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/blocks/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateEndpointAndWorkspace(t *testing.T) {
	_, srv := newTestApp(t, config.ProviderFake, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/generate", map[string]any{"blockType": "action"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workspace/blocks", map[string]any{"type": "action"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"id":"block-0"`)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/workspace/blocks/block-0/generate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/workspace/blocks/block-0", map[string]any{"description": "say hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/workspace/blocks/block-0/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"generated":true`)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/workspace/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "try {")

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/workspace/export?format=all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(body, &files))
	assert.Len(t, files.Files, 3)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/workspace/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusAndWatch(t *testing.T) {
	_, srv := newTestApp(t, config.ProviderFake, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type  string `json:"type"`
		Event *struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"event"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "subscribed", msg.Type)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/blocks", map[string]any{"description": "x"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "created", msg.Event.Type)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]any
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, float64(1), status["blocks"])
	assert.Equal(t, false, status["busy"])
	assert.Equal(t, "FakeLLM", status["llm"])
}
