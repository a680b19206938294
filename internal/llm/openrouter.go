package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrimono/internal/models"

	"go.uber.org/zap"
)

const (
	openRouterURL           = "https://openrouter.ai/api/v1/chat/completions"
	openRouterPrimaryModel  = "deepseek/deepseek-chat"
	openRouterFallbackModel = "meta-llama/llama-3.3-70b-instruct"

	// OpenRouter free models carry tighter context windows than the
	// builder budget; the blob is capped again here.
	openRouterContextCap = 15000
)

// OpenRouter is the second completion tier. It tries a primary model and
// falls back to a second one on any failure of the first.
type OpenRouter struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenRouter(tokens TokenSource, logger *zap.Logger) *OpenRouter {
	return &OpenRouter{
		endpoint:   openRouterURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (o *OpenRouter) Name() string { return ProviderOpenRouter }

func (o *OpenRouter) Complete(ctx context.Context, req Request) (string, error) {
	token := o.tokens.Token(ProviderOpenRouter)
	if token == "" {
		return "", models.NewCompletionError(models.CompletionAuthMissing, ProviderOpenRouter,
			fmt.Errorf("no OpenRouter token configured"))
	}

	fullPrompt := req.UserMessage
	if req.Context != "" {
		fullPrompt = fmt.Sprintf("--- CONTEXTE DE DONNÉES AGRI ---\n%s\n\n--- QUESTION UTILISATEUR ---\n%s",
			truncate(req.Context, openRouterContextCap), req.UserMessage)
	}

	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: "system", Content: req.System})
	messages = append(messages, req.History...)
	messages = append(messages, Message{Role: "user", Content: fullPrompt})

	text, err := o.tryModel(ctx, token, openRouterPrimaryModel, messages, req)
	if err != nil {
		o.logger.Warn("OpenRouter primary model failed, trying fallback",
			zap.String("model", openRouterPrimaryModel), zap.Error(err))
		text, err = o.tryModel(ctx, token, openRouterFallbackModel, messages, req)
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(text), nil
}

func (o *OpenRouter) tryModel(ctx context.Context, token, model string, messages []Message, req Request) (string, error) {
	return postChatCompletion(ctx, o.httpClient, ProviderOpenRouter, o.endpoint, token, chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
}

// SetEndpoint overrides the API URL, used by tests.
func (o *OpenRouter) SetEndpoint(url string) { o.endpoint = url }
