package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrimono/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens map[string]string

func (s staticTokens) Token(provider string) string { return s[provider] }

func completionJSON(text string) string {
	return `{"choices":[{"message":{"content":"` + text + `"}}]}`
}

func TestHuggingFace_ContextEmbeddedInSystemPrompt(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(completionJSON("réponse")))
	}))
	defer srv.Close()

	hf := NewHuggingFace("test-model", staticTokens{ProviderHuggingFace: "hf-token"}, zap.NewNop())
	hf.SetEndpoint(srv.URL)

	text, err := hf.Complete(context.Background(), Request{
		System:      "Tu es un assistant.",
		History:     []Message{{Role: "user", Content: "Q1"}, {Role: "assistant", Content: "R1"}},
		UserMessage: "Question ?",
		Context:     "<PROVINCIAL_TOTALS_VERIFIED>données</PROVINCIAL_TOTALS_VERIFIED>",
		MaxTokens:   200,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "réponse", text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "DONNÉES LOCALES")
	assert.Contains(t, got.Messages[0].Content, "PROVINCIAL_TOTALS_VERIFIED")
	assert.Equal(t, "Question ?", got.Messages[3].Content)
}

func TestHuggingFace_MissingToken(t *testing.T) {
	hf := NewHuggingFace("test-model", staticTokens{}, zap.NewNop())

	_, err := hf.Complete(context.Background(), Request{UserMessage: "Q"})
	require.Error(t, err)
	assert.Equal(t, models.CompletionAuthMissing, models.CompletionKindOf(err))
}

func TestHuggingFace_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   models.CompletionKind
	}{
		{http.StatusUnauthorized, models.CompletionAuthMissing},
		{http.StatusForbidden, models.CompletionAuthMissing},
		{http.StatusTooManyRequests, models.CompletionRateLimited},
		{http.StatusNotFound, models.CompletionNotFound},
		{http.StatusInternalServerError, models.CompletionTransient},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		hf := NewHuggingFace("test-model", staticTokens{ProviderHuggingFace: "hf-token"}, zap.NewNop())
		hf.SetEndpoint(srv.URL)

		_, err := hf.Complete(context.Background(), Request{UserMessage: "Q"})
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.kind, models.CompletionKindOf(err), "status %d", tc.status)
		srv.Close()
	}
}

func TestHuggingFace_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	hf := NewHuggingFace("test-model", staticTokens{ProviderHuggingFace: "hf-token"}, zap.NewNop())
	hf.SetEndpoint(srv.URL)

	_, err := hf.Complete(context.Background(), Request{UserMessage: "Q"})
	require.Error(t, err)
	assert.Equal(t, models.CompletionTransient, models.CompletionKindOf(err))
}
