// Package llm models text completion as a capability with interchangeable
// provider backends, so the data pipeline stays testable without network
// access.
package llm

import (
	"context"
	"strings"

	"agrimono/internal/models"
)

// Provider names, also used as credential keys in the settings store.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenRouter  = "openrouter"
	ProviderGemini      = "gemini"
	ProviderGigaChat    = "gigachat"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-independent completion request: a system prompt,
// a bounded conversation history, the user message and the grounding
// context blob.
type Request struct {
	System      string
	History     []Message
	UserMessage string
	Context     string
	MaxTokens   int
	Temperature float64
}

// Completer is the opaque text-completion capability. Errors are
// *models.CompletionError so callers can apply the tiered fallback policy.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// TokenSource resolves the current credential for a provider. Deployment
// configuration overrides stored credentials; an empty string means the
// provider is not configured.
type TokenSource interface {
	Token(provider string) string
}

// classifyStatus maps an HTTP-like status to a typed completion failure.
func classifyStatus(provider string, status int, cause error) error {
	switch {
	case status == 401 || status == 403:
		return models.NewCompletionError(models.CompletionAuthMissing, provider, cause)
	case status == 429:
		return models.NewCompletionError(models.CompletionRateLimited, provider, cause)
	case status == 404 || status == 400:
		return models.NewCompletionError(models.CompletionNotFound, provider, cause)
	default:
		return models.NewCompletionError(models.CompletionTransient, provider, cause)
	}
}

// sniffError classifies opaque SDK errors by message content. Vendor SDKs
// fold HTTP statuses into error strings.
func sniffError(provider string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return models.NewCompletionError(models.CompletionRateLimited, provider, err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return models.NewCompletionError(models.CompletionAuthMissing, provider, err)
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return models.NewCompletionError(models.CompletionNotFound, provider, err)
	default:
		return models.NewCompletionError(models.CompletionTransient, provider, err)
	}
}

// truncate caps a string at n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
