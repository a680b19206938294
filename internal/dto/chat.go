package dto

import "agrimono/internal/models"

type ChatRequest struct {
	Message string               `json:"message" validate:"required"`
	History []models.ChatMessage `json:"history,omitempty"`
}

type ChatResponse struct {
	RequestID   string            `json:"request_id"`
	Answer      string            `json:"answer"`
	Datasets    []DatasetResponse `json:"datasets"`
	Strategy    string            `json:"strategy"`
	ContextSize int               `json:"context_size"`
}
