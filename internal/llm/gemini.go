package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agrimono/internal/models"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// geminiModels is cycled in order to ride out per-model 404 and quota
// variation; a rate limit is project-wide and stops the cycle.
var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

// Gemini is the third completion tier, backed by the Google GenAI SDK.
// The client is built lazily because the credential may only arrive at
// runtime through the settings store.
type Gemini struct {
	tokens TokenSource
	logger *zap.Logger

	mu          sync.Mutex
	client      *genai.Client
	clientToken string
}

func NewGemini(tokens TokenSource, logger *zap.Logger) *Gemini {
	return &Gemini{tokens: tokens, logger: logger}
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		var role genai.Role = genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	fullPrompt := req.UserMessage
	if req.Context != "" {
		fullPrompt = fmt.Sprintf("CONTEXTE DE DONNÉES :\n%s\n\nQUESTION : %s", req.Context, req.UserMessage)
	}
	contents = append(contents, genai.NewContentFromText(fullPrompt, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
	}

	var lastErr error
	for _, model := range geminiModels {
		resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			typed := sniffError(ProviderGemini, err)
			g.logger.Warn("Gemini model failed", zap.String("model", model), zap.Error(err))
			lastErr = typed
			if models.CompletionKindOf(typed) == models.CompletionRateLimited {
				return "", typed
			}
			continue
		}
		if text := strings.TrimSpace(resp.Text()); text != "" {
			return text, nil
		}
		lastErr = models.NewCompletionError(models.CompletionTransient, ProviderGemini,
			fmt.Errorf("model %s returned empty text", model))
	}
	return "", lastErr
}

func (g *Gemini) clientFor(ctx context.Context) (*genai.Client, error) {
	token := g.tokens.Token(ProviderGemini)
	if token == "" {
		return nil, models.NewCompletionError(models.CompletionAuthMissing, ProviderGemini,
			fmt.Errorf("no Gemini token configured"))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil && g.clientToken == token {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: token})
	if err != nil {
		return nil, models.NewCompletionError(models.CompletionTransient, ProviderGemini, err)
	}
	g.client = client
	g.clientToken = token
	return client, nil
}
