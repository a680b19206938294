package llm

import (
	"context"
	"fmt"
	"time"

	"agrimono/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const retriesPerProvider = 2

// Tiered chains providers in priority order. Per provider: authMissing
// skips it outright, rateLimited stops it immediately (retrying a
// rate-limited provider only digs the hole deeper), notFound and transient
// failures get a bounded exponential-backoff retry before moving on.
type Tiered struct {
	providers []Completer
	logger    *zap.Logger
}

func NewTiered(logger *zap.Logger, providers ...Completer) *Tiered {
	return &Tiered{providers: providers, logger: logger}
}

func (t *Tiered) Name() string { return "tiered" }

func (t *Tiered) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	configured := false

	for _, provider := range t.providers {
		text, err := t.completeWithRetry(ctx, provider, req)
		if err == nil {
			return text, nil
		}

		kind := models.CompletionKindOf(err)
		if kind != models.CompletionAuthMissing {
			configured = true
		}
		t.logger.Warn("Completion tier failed",
			zap.String("provider", provider.Name()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		lastErr = err
	}

	if lastErr == nil {
		return "", models.NewCompletionError(models.CompletionAuthMissing, "tiered",
			fmt.Errorf("no completion providers registered"))
	}
	if !configured {
		// Every tier reported a missing credential: the user has to
		// configure a provider, retrying is pointless.
		return "", models.NewCompletionError(models.CompletionAuthMissing, "tiered",
			fmt.Errorf("no completion provider configured: %w", lastErr))
	}
	return "", lastErr
}

func (t *Tiered) completeWithRetry(ctx context.Context, provider Completer, req Request) (string, error) {
	var text string

	op := func() error {
		var err error
		text, err = provider.Complete(ctx, req)
		if err == nil {
			return nil
		}
		switch models.CompletionKindOf(err) {
		case models.CompletionAuthMissing, models.CompletionRateLimited:
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, retriesPerProvider), ctx))
	if err != nil {
		return "", err
	}
	return text, nil
}
