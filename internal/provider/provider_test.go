package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry(NewLogicProvider(), NewFakeProvider())

	p, err := reg.Resolve(" FAKE ")
	require.NoError(t, err)
	assert.Equal(t, IDFake, p.ID())

	p, err = reg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, IDLogic, p.ID())

	_, err = reg.Resolve("anthropic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")
	assert.Equal(t, []string{"fake", "logic"}, reg.IDs())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError("x", nil))

	timeout := AsError("x", context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, timeout.Kind)

	transport := AsError("x", errors.New("boom"))
	assert.Equal(t, KindTransport, transport.Kind)

	wrapped := AsError("y", errors.Join(errors.New("outer"), &Error{Provider: "x", Kind: KindMalformed}))
	assert.Equal(t, KindMalformed, wrapped.Kind)
	assert.Equal(t, "x", wrapped.Provider)
}

func TestFakeProviderFixedPayload(t *testing.T) {
	got, err := NewFakeProvider().Extract(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []any{"Use the fake LLM output for validation"}, got["decisions"])
	assert.Equal(t, "Next Tuesday", got["next_checkin"])
}

func TestParseJSONBlock(t *testing.T) {
	cases := map[string]string{
		"direct":   `{"decisions":["a"]}`,
		"fenced":   "Here you go:\n```json\n{\"decisions\":[\"a\"]}\n```\nthanks",
		"embedded": `prefix [1,2] {not json} then {"decisions":["a"]} suffix`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			obj, err := ParseJSONBlock(text)
			require.NoError(t, err)
			assert.Equal(t, []any{"a"}, obj["decisions"])
		})
	}

	_, err := ParseJSONBlock("no json here")
	require.Error(t, err)
	_, err = ParseJSONBlock("[1,2,3]")
	require.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	assert.Contains(t, BuildPrompt("  hello  "), "---\nhello\n---")
	assert.Contains(t, BuildPrompt(" "), "(No transcript content provided.)")
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func TestOpenAIProviderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "json_object", req.ResponseFormat["type"])
		assert.Equal(t, "test-model", req.Model)

		_, _ = w.Write([]byte(chatReply(`{"decisions":["Ship v2"],"actions":[]}`)))
	}))
	defer srv.Close()

	var usage Usage
	p := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "test-model",
		OnUsage: func(u Usage) { usage = u },
	})

	got, err := p.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, []any{"Ship v2"}, got["decisions"])
	assert.Equal(t, 15, usage.TotalTokens)
	assert.Equal(t, "test-model", p.Model())
}

func TestOpenAIProviderDefaultModel(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{Model: "  "})
	assert.Equal(t, defaultOpenAIModel, p.Model())
}

func TestOpenAIProviderRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(chatReply(`{"risks":["r"]}`)))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	got, err := p.Extract(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, []any{"r"}, got["risks"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIProviderErrorKinds(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewOpenAIProvider(OpenAIConfig{BaseURL: "http://127.0.0.1:1"}).Extract(context.Background(), "t")
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindTransport, pe.Kind)
	})

	t.Run("client error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).Extract(context.Background(), "t")
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindTransport, pe.Kind)
	})

	t.Run("malformed content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(chatReply("sorry, I cannot do that")))
		}))
		defer srv.Close()

		_, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).Extract(context.Background(), "t")
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindMalformed, pe.Kind)
	})

	t.Run("deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}).Extract(ctx, "t")
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindTimeout, pe.Kind)
		assert.False(t, strings.Contains(pe.Error(), "sk-"))
	})
}
