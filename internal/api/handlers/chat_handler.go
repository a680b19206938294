package handlers

import (
	"errors"
	"strings"

	"agrimono/internal/dto"
	"agrimono/internal/models"
	"agrimono/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat answers one question grounded in the routed dataset.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	result, err := h.chatService.Answer(c.Context(), req.Message, req.History)
	if err != nil {
		return h.errorResponse(c, err)
	}

	resp := dto.ChatResponse{
		RequestID:   result.RequestID,
		Answer:      result.Answer,
		Datasets:    make([]dto.DatasetResponse, 0, len(result.Datasets)),
		Strategy:    result.Strategy,
		ContextSize: result.ContextSize,
	}
	for _, ds := range result.Datasets {
		resp.Datasets = append(resp.Datasets, toDatasetResponse(ds, false))
	}
	return c.JSON(resp)
}

func (h *ChatHandler) errorResponse(c *fiber.Ctx, err error) error {
	var fetchErr *models.FetchError
	var parseErr *models.ParseError
	if errors.As(err, &fetchErr) || errors.As(err, &parseErr) {
		h.logger.Error("Chat data load failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Data source unavailable",
		})
	}

	var compErr *models.CompletionError
	if errors.As(err, &compErr) {
		h.logger.Error("Chat completion failed",
			zap.String("kind", string(compErr.Kind)),
			zap.String("provider", compErr.Provider),
			zap.Error(err))
		switch compErr.Kind {
		case models.CompletionAuthMissing:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "No completion provider configured",
			})
		case models.CompletionRateLimited:
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "All completion providers are rate limited, retry later",
			})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Completion providers unavailable",
			})
		}
	}

	h.logger.Error("Chat failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
