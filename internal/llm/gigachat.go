package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agrimono/internal/models"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// GigaChat is an optional fourth completion tier. The client performs an
// OAuth exchange on construction, so it is built lazily on first use and
// only when a key is configured.
type GigaChat struct {
	scope  string
	tokens TokenSource
	logger *zap.Logger

	mu        sync.Mutex
	model     *gigago.GenerativeModel
	client    *gigago.Client
	clientKey string
}

func NewGigaChat(scope string, tokens TokenSource, logger *zap.Logger) *GigaChat {
	return &GigaChat{scope: scope, tokens: tokens, logger: logger}
}

func (g *GigaChat) Name() string { return ProviderGigaChat }

func (g *GigaChat) Complete(ctx context.Context, req Request) (string, error) {
	model, err := g.modelFor(ctx, req.System, req.Temperature)
	if err != nil {
		return "", err
	}

	messages := make([]gigago.Message, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := gigago.RoleUser
		if msg.Role == "assistant" {
			role = gigago.RoleAssistant
		}
		messages = append(messages, gigago.Message{Role: role, Content: msg.Content})
	}

	fullPrompt := req.UserMessage
	if req.Context != "" {
		fullPrompt = fmt.Sprintf("CONTEXTE DE DONNÉES :\n%s\n\nQUESTION : %s", req.Context, req.UserMessage)
	}
	messages = append(messages, gigago.Message{Role: gigago.RoleUser, Content: fullPrompt})

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", sniffError(ProviderGigaChat, err)
	}
	if len(resp.Choices) == 0 {
		return "", models.NewCompletionError(models.CompletionTransient, ProviderGigaChat,
			fmt.Errorf("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *GigaChat) modelFor(ctx context.Context, system string, temperature float64) (*gigago.GenerativeModel, error) {
	key := g.tokens.Token(ProviderGigaChat)
	if key == "" {
		return nil, models.NewCompletionError(models.CompletionAuthMissing, ProviderGigaChat,
			fmt.Errorf("no GigaChat key configured"))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.model == nil || g.clientKey != key {
		if g.client != nil {
			g.client.Close()
		}
		client, err := gigago.NewClient(ctx, key, gigago.WithCustomScope(g.scope))
		if err != nil {
			return nil, sniffError(ProviderGigaChat, err)
		}
		g.client = client
		g.clientKey = key
		g.model = client.GenerativeModel("GigaChat")
		g.logger.Info("GigaChat client initialized")
	}
	g.model.SystemInstruction = system
	g.model.Temperature = temperature
	return g.model, nil
}

// Close releases the underlying client.
func (g *GigaChat) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		g.client.Close()
		g.client = nil
		g.model = nil
	}
	return nil
}
