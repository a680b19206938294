package dto

type UpdateCredentialsRequest struct {
	Provider string `json:"provider" validate:"required,oneof=huggingface openrouter gemini gigachat"`
	Token    string `json:"token" validate:"required"`
}

// CredentialsResponse reports configuration state only. Tokens are never
// echoed back.
type CredentialsResponse struct {
	Providers map[string]bool `json:"providers"`
}
