package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"agrimono/internal/llm"
	"agrimono/internal/models"
	"agrimono/internal/registry"

	"go.uber.org/zap"
)

// Routing sentinels returned by the classifier for category-wide questions.
const (
	RouteGlobalVegetal = "GLOBAL_VEGETAL"
	RouteGlobalAnimal  = "GLOBAL_ANIMAL"

	categoryVegetal = "Végétal"
	categoryAnimal  = "Animal"
)

// Keyword match weights: an exact phrase hit in the raw input outranks a
// hit after normalization, which outranks a single significant-word
// partial.
const (
	weightExact   = 3
	weightNorm    = 2
	weightPartial = 1
)

// French question scaffolding carrying no routing signal.
var stopwords = map[string]bool{
	"le": true, "la": true, "les": true, "l": true, "un": true, "une": true,
	"de": true, "du": true, "des": true, "d": true, "et": true, "en": true,
	"au": true, "aux": true, "sur": true, "pour": true, "dans": true,
	"est": true, "sont": true, "quel": true, "quelle": true, "quels": true,
	"quelles": true, "que": true, "qui": true, "quoi": true, "combien": true,
	"comment": true, "ou": true, "par": true, "avec": true, "ce": true,
	"cette": true, "ces": true, "il": true, "elle": true, "y": true, "a": true,
}

var digitRun = regexp.MustCompile(`\d+`)

// RouteDecision names the dataset(s) that should answer a question.
type RouteDecision struct {
	Global   bool
	Category string
	Datasets []models.Dataset
	Strategy string
}

// RouterService picks the dataset answering a free-text question, with a
// deterministic keyword scorer and an optional LLM classifier.
type RouterService struct {
	registry   *registry.Registry
	classifier llm.Completer
	logger     *zap.Logger
}

func NewRouterService(reg *registry.Registry, classifier llm.Completer, logger *zap.Logger) *RouterService {
	return &RouterService{registry: reg, classifier: classifier, logger: logger}
}

// Route tries the classifier first when one is wired, then the keyword
// scorer. A nil return is the RoutingAmbiguous outcome: not an error, the
// caller must fall back to the active or default dataset.
func (s *RouterService) Route(ctx context.Context, question string) *RouteDecision {
	if s.classifier != nil {
		if decision := s.routeByClassifier(ctx, question); decision != nil {
			return decision
		}
	}
	if ds := s.DetectByKeywords(question); ds != nil {
		return &RouteDecision{Datasets: []models.Dataset{*ds}, Strategy: "keywords"}
	}
	return nil
}

// DetectByKeywords scores every dataset by keyword overlap and returns the
// strict winner, or nil when nothing scores above zero. Ties keep the
// earlier-declared dataset: the comparison is '>', not '>='.
func (s *RouterService) DetectByKeywords(question string) *models.Dataset {
	rawLower := strings.ToLower(question)
	normInput := normalizeQuestion(question)
	inputWords := strings.Fields(normInput)

	datasets := s.registry.Datasets()
	var best *models.Dataset
	bestScore := 0

	for i := range datasets {
		score := 0
		for _, kw := range datasets[i].Keywords {
			score += scoreKeyword(kw, rawLower, normInput, inputWords)
		}
		if score > bestScore {
			bestScore = score
			best = &datasets[i]
		}
	}

	if bestScore == 0 {
		return nil
	}
	return best
}

func scoreKeyword(keyword, rawLower, normInput string, inputWords []string) int {
	kw := strings.TrimSpace(strings.ToLower(keyword))
	if kw == "" {
		return 0
	}
	wordCount := len(strings.Fields(kw))
	base := len(kw) * wordCount

	if strings.Contains(rawLower, kw) {
		return base * weightExact
	}

	normKw := normalizeQuestion(kw)
	if normKw != "" && strings.Contains(normInput, normKw) {
		return base * weightNorm
	}

	// Partial: one significant keyword word appearing as an input word
	// substring still carries a weak signal, scored on that word alone.
	for _, kwWord := range strings.Fields(normKw) {
		if len(kwWord) < 4 {
			continue
		}
		for _, inWord := range inputWords {
			if strings.Contains(inWord, kwWord) {
				return len(kwWord) * weightPartial
			}
		}
	}
	return 0
}

// normalizeQuestion lowercases, strips accents, collapses letter runs of
// three or more, and removes stopwords.
func normalizeQuestion(s string) string {
	s = strings.ToLower(stripAccents(s))

	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		if !isLetterOrDigit(r) {
			r = ' '
		}
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		// Stretched typing ("olivierrrr") collapses to a single letter.
		if run := j - i; run >= 3 || r == ' ' {
			b.WriteRune(r)
		} else {
			for k := 0; k < run; k++ {
				b.WriteRune(r)
			}
		}
		i = j
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isLetterOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// routeByClassifier asks the completion capability to name the dataset.
// Any failure degrades to nil so the keyword scorer can take over.
func (s *RouterService) routeByClassifier(ctx context.Context, question string) *RouteDecision {
	id, err := s.DetectByClassifier(ctx, question)
	if err != nil {
		s.logger.Warn("Classifier routing failed, falling back to keywords", zap.Error(err))
		return nil
	}

	switch id {
	case "":
		return nil
	case RouteGlobalVegetal:
		return &RouteDecision{Global: true, Category: categoryVegetal,
			Datasets: s.registry.ByCategory(categoryVegetal), Strategy: "classifier"}
	case RouteGlobalAnimal:
		return &RouteDecision{Global: true, Category: categoryAnimal,
			Datasets: s.registry.ByCategory(categoryAnimal), Strategy: "classifier"}
	default:
		if ds, ok := s.registry.ByID(id); ok {
			return &RouteDecision{Datasets: []models.Dataset{ds}, Strategy: "classifier"}
		}
		return nil
	}
}

// DetectByClassifier returns a dataset id, a GLOBAL_* sentinel, or "" when
// the response could not be mapped to the registry.
func (s *RouterService) DetectByClassifier(ctx context.Context, question string) (string, error) {
	var catalogue strings.Builder
	for _, ds := range s.registry.Datasets() {
		catalogue.WriteString(fmt.Sprintf("- ID: %s | Label: %s\n", ds.ID, ds.Label))
	}

	system := fmt.Sprintf(`Tu es un moteur de recherche ultra-précis. Retourne UNIQUEMENT l'ID.
BASES :
%s
RÈGLES :
- Question sur culture/production/olivier/blé -> GLOBAL_VEGETAL
- Question sur animaux/vache/lait -> GLOBAL_ANIMAL
- Sinon ID exact.
REPONSE: [ID ou GLOBAL_XXX] uniquement.`, catalogue.String())

	raw, err := s.classifier.Complete(ctx, llm.Request{
		System:      system,
		UserMessage: fmt.Sprintf("Question: %q", question),
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	cleaned := strings.TrimSpace(raw)
	s.logger.Debug("Classifier routing response", zap.String("response", cleaned))

	if strings.Contains(cleaned, RouteGlobalVegetal) {
		return RouteGlobalVegetal, nil
	}
	if strings.Contains(cleaned, RouteGlobalAnimal) {
		return RouteGlobalAnimal, nil
	}
	if match := digitRun.FindString(cleaned); match != "" {
		if _, ok := s.registry.ByID(match); ok {
			return match, nil
		}
	}
	return "", nil
}
