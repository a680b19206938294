package handlers

import (
	"strings"

	"agrimono/internal/dto"
	"agrimono/internal/llm"
	"agrimono/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var knownProviders = []string{
	llm.ProviderHuggingFace,
	llm.ProviderOpenRouter,
	llm.ProviderGemini,
	llm.ProviderGigaChat,
}

type SettingsHandler struct {
	credentials *service.CredentialService
	logger      *zap.Logger
}

func NewSettingsHandler(credentials *service.CredentialService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		credentials: credentials,
		logger:      logger,
	}
}

// GetCredentials reports which providers are configured. Token values never
// leave the server.
func (h *SettingsHandler) GetCredentials(c *fiber.Ctx) error {
	return c.JSON(dto.CredentialsResponse{
		Providers: h.credentials.Configured(knownProviders...),
	})
}

// UpdateCredentials stores one provider token.
func (h *SettingsHandler) UpdateCredentials(c *fiber.Ctx) error {
	var req dto.UpdateCredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if !isKnownProvider(req.Provider) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown provider",
		})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token is required",
		})
	}

	if err := h.credentials.Set(c.Context(), req.Provider, req.Token); err != nil {
		h.logger.Error("Failed to store credential",
			zap.String("provider", req.Provider), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store credential",
		})
	}

	h.logger.Info("Credential updated", zap.String("provider", req.Provider))
	return c.JSON(dto.CredentialsResponse{
		Providers: h.credentials.Configured(knownProviders...),
	})
}

func isKnownProvider(provider string) bool {
	for _, p := range knownProviders {
		if p == provider {
			return true
		}
	}
	return false
}
