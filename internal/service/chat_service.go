package service

import (
	"context"
	"fmt"

	"agrimono/internal/llm"
	"agrimono/internal/models"
	"agrimono/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// chatSystemPrompt binds the model to the two context sections. Provincial
// totals come only from the verified section; commune detail is for
// rankings and lookups, never for re-summing.
const chatSystemPrompt = `Tu es AgriBot, l'assistant statistique agricole de la province. Tu réponds uniquement à partir des données fournies.

RÈGLES STRICTES :
1. Pour toute question de TOTAL provincial, utilise EXCLUSIVEMENT la section <PROVINCIAL_TOTALS_VERIFIED>. Ces chiffres sont vérifiés.
2. La section <DÉTAILS_DES_COMMUNES_POUR_CLASSEMENT> sert UNIQUEMENT aux classements et comparaisons entre communes.
3. N'additionne JAMAIS les détails des communes pour recalculer un total : la section des totaux fait foi.
4. Si la donnée demandée est absente du contexte, dis-le clairement. N'invente aucun chiffre.
5. Réponds en français, de manière concise et chiffrée.`

// ChatResult carries the answer and enough routing detail for callers to
// show which data grounded it.
type ChatResult struct {
	RequestID   string
	Answer      string
	Datasets    []models.Dataset
	Strategy    string
	ContextSize int
}

// ChatService runs the full answering pipeline: route the question, load
// and shape the data, build the context blob, complete.
type ChatService struct {
	cfg        config.ChatConfig
	sheets     *SheetService
	router     *RouterService
	normalizer *Normalizer
	builder    *ContextBuilder
	completer  llm.Completer
	logger     *zap.Logger
}

func NewChatService(
	cfg config.ChatConfig,
	sheets *SheetService,
	router *RouterService,
	normalizer *Normalizer,
	builder *ContextBuilder,
	completer llm.Completer,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:        cfg,
		sheets:     sheets,
		router:     router,
		normalizer: normalizer,
		builder:    builder,
		completer:  completer,
		logger:     logger,
	}
}

// Answer resolves a question against the routed dataset(s). When routing is
// ambiguous the active dataset answers, so the caller always gets a
// grounded response or an error.
func (s *ChatService) Answer(ctx context.Context, question string, history []models.ChatMessage) (ChatResult, error) {
	requestID := uuid.New().String()
	log := s.logger.With(zap.String("request_id", requestID))

	decision := s.router.Route(ctx, question)
	if decision == nil {
		active := s.sheets.Current(ctx)
		decision = &RouteDecision{Datasets: []models.Dataset{active}, Strategy: "active"}
		log.Info("Routing ambiguous, using active dataset", zap.String("dataset_id", active.ID))
	} else {
		log.Info("Question routed",
			zap.String("strategy", decision.Strategy),
			zap.Bool("global", decision.Global),
			zap.Int("datasets", len(decision.Datasets)))
	}

	sections, err := s.buildSections(ctx, decision.Datasets)
	if err != nil {
		return ChatResult{}, err
	}

	blob := s.builder.Build(sections)

	answer, err := s.completer.Complete(ctx, llm.Request{
		System:      chatSystemPrompt,
		History:     s.sanitizeHistory(history),
		UserMessage: question,
		Context:     blob,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("completion failed: %w", err)
	}

	log.Info("Chat answered",
		zap.Int("context_chars", len(blob)),
		zap.Int("answer_chars", len(answer)))

	return ChatResult{
		RequestID:   requestID,
		Answer:      answer,
		Datasets:    decision.Datasets,
		Strategy:    decision.Strategy,
		ContextSize: len(blob),
	}, nil
}

// buildSections runs the shaping pipeline for each dataset. Multi-dataset
// loads are all-or-nothing: partial provincial totals would mislead.
func (s *ChatService) buildSections(ctx context.Context, datasets []models.Dataset) ([]DatasetContext, error) {
	sets, err := s.sheets.LoadAll(ctx, datasets)
	if err != nil {
		return nil, err
	}

	sections := make([]DatasetContext, 0, len(datasets))
	for _, ds := range datasets {
		rs := sets[ds.ID]
		if rs.Empty() {
			continue
		}
		cc := ClassifyColumns(rs)
		rows := s.normalizer.NormalizeSet(rs, ds.Label, cc)
		sections = append(sections, DatasetContext{
			Label:  ds.Label,
			Rows:   rows,
			Totals: Aggregate(rows),
		})
	}
	return sections, nil
}

// sanitizeHistory keeps the last few user/assistant turns and drops leading
// assistant messages so the transcript starts with a user turn.
func (s *ChatService) sanitizeHistory(history []models.ChatMessage) []llm.Message {
	var kept []llm.Message
	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		kept = append(kept, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	if limit := s.cfg.HistoryLimit; limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	for len(kept) > 0 && kept[0].Role != string(models.RoleUser) {
		kept = kept[1:]
	}
	return kept
}
