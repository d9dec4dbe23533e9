package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterClient_SendsChatRequest(t *testing.T) {
	var got routerChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"name\":\"x\"}  "}}]}`))
	}))
	defer srv.Close()

	cli := NewRouterClient(RouterConfig{BaseURL: srv.URL, APIKey: "tok", Model: "m", MaxTokens: 2000, Temperature: 0.7})
	out, err := cli.Chat(context.Background(), []Message{System("sys"), User("hello")})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x"}`, out)

	assert.Equal(t, "m", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hello"}}, got.Messages)
}

func TestRouterClient_MissingTokenIsConfigurationError(t *testing.T) {
	cli := NewRouterClient(RouterConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := cli.Chat(context.Background(), []Message{User("x")})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRouterClient_Non2xxCarriesUpstreamMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":{"message":"model overloaded"}}`: "model overloaded",
		`{"error":"bad token"}`:                    "bad token",
		`gateway timeout`:                          "gateway timeout",
	}
	for body, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(body))
		}))
		cli := NewRouterClient(RouterConfig{BaseURL: srv.URL, APIKey: "tok"})
		_, err := cli.Chat(context.Background(), []Message{User("x")})
		srv.Close()

		var se *StatusError
		require.True(t, errors.As(err, &se), body)
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
		assert.Equal(t, want, se.Message)
	}
}

func TestRouterClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	cli := NewRouterClient(RouterConfig{BaseURL: srv.URL, APIKey: "tok"})
	_, err := cli.Chat(context.Background(), []Message{User("x")})
	require.ErrorIs(t, err, ErrEmptyReply)
}
