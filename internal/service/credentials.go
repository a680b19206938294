package service

import (
	"context"
	"time"

	"agrimono/internal/llm"
	"agrimono/pkg/config"

	"go.uber.org/zap"
)

// CredentialStore persists provider credentials entered at runtime.
type CredentialStore interface {
	Credential(ctx context.Context, provider string) (string, error)
	SetCredential(ctx context.Context, provider, token string) error
}

// CredentialService resolves provider tokens. Deployment configuration wins
// over stored credentials; an empty result means the provider is off.
type CredentialService struct {
	env    map[string]string
	store  CredentialStore
	logger *zap.Logger
}

func NewCredentialService(cfg config.ProvidersConfig, store CredentialStore, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		env: map[string]string{
			llm.ProviderHuggingFace: cfg.HuggingFaceToken,
			llm.ProviderOpenRouter:  cfg.OpenRouterToken,
			llm.ProviderGemini:      cfg.GeminiToken,
			llm.ProviderGigaChat:    cfg.GigaChatKey,
		},
		store:  store,
		logger: logger,
	}
}

// Token implements llm.TokenSource. Store lookups are bounded so a wedged
// store cannot stall a completion.
func (s *CredentialService) Token(provider string) string {
	if token := s.env[provider]; token != "" {
		return token
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	token, err := s.store.Credential(ctx, provider)
	if err != nil {
		s.logger.Warn("Failed to read stored credential",
			zap.String("provider", provider), zap.Error(err))
		return ""
	}
	return token
}

// Set stores a credential for a provider. Deployment configuration still
// overrides it until unset.
func (s *CredentialService) Set(ctx context.Context, provider, token string) error {
	return s.store.SetCredential(ctx, provider, token)
}

// Configured reports which providers currently resolve to a token, without
// ever exposing the tokens themselves.
func (s *CredentialService) Configured(providers ...string) map[string]bool {
	out := make(map[string]bool, len(providers))
	for _, p := range providers {
		out[p] = s.Token(p) != ""
	}
	return out
}
