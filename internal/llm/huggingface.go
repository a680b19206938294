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

const hfRouterURL = "https://router.huggingface.co/v1/chat/completions"

// HuggingFace is the primary completion tier, talking to the HF inference
// router through its OpenAI-compatible endpoint.
type HuggingFace struct {
	model      string
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHuggingFace(model string, tokens TokenSource, logger *zap.Logger) *HuggingFace {
	return &HuggingFace{
		model:      model,
		endpoint:   hfRouterURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (h *HuggingFace) Name() string { return ProviderHuggingFace }

func (h *HuggingFace) Complete(ctx context.Context, req Request) (string, error) {
	token := h.tokens.Token(ProviderHuggingFace)
	if token == "" {
		return "", models.NewCompletionError(models.CompletionAuthMissing, ProviderHuggingFace,
			fmt.Errorf("no HuggingFace token configured"))
	}

	// The grounding data rides inside the system prompt for this tier.
	system := req.System
	if req.Context != "" {
		system += "\n\nDONNÉES LOCALES :\n```\n" + req.Context + "\n```"
	}

	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: "system", Content: system})
	messages = append(messages, req.History...)
	messages = append(messages, Message{Role: "user", Content: req.UserMessage})

	text, err := postChatCompletion(ctx, h.httpClient, ProviderHuggingFace, h.endpoint, token, chatCompletionRequest{
		Model:       h.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	h.logger.Debug("HuggingFace completion served", zap.String("model", h.model))
	return strings.TrimSpace(text), nil
}

// SetEndpoint overrides the router URL, used by tests.
func (h *HuggingFace) SetEndpoint(url string) { h.endpoint = url }
