package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"agrimono/internal/models"
)

// chatCompletionRequest is the OpenAI-compatible wire format shared by the
// HuggingFace router and OpenRouter.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// postChatCompletion performs one OpenAI-compatible chat completion call
// and returns the generated text or a typed completion failure.
func postChatCompletion(ctx context.Context, client *http.Client, provider, url, token string, reqBody chatCompletionRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", models.NewCompletionError(models.CompletionTransient, provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", models.NewCompletionError(models.CompletionTransient, provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return "", models.NewCompletionError(models.CompletionTransient, provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", classifyStatus(provider, resp.StatusCode,
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", models.NewCompletionError(models.CompletionTransient, provider, err)
	}
	if len(parsed.Choices) == 0 {
		return "", models.NewCompletionError(models.CompletionTransient, provider,
			fmt.Errorf("empty choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}
