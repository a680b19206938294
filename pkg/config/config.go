package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Chat      ChatConfig
	Providers ProvidersConfig
	Store     StoreConfig
	Admin     AdminConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SheetsConfig points at the published spreadsheet export.
// Each dataset is one sheet addressed by its gid.
type SheetsConfig struct {
	DocID   string
	BaseURL string
	Timeout time.Duration
}

type ChatConfig struct {
	ContextBudget int
	HistoryLimit  int
	MaxTokens     int
	Temperature   float64
}

// ProvidersConfig carries deployment-time credentials. A non-empty value
// here takes priority over anything stored through the settings API.
type ProvidersConfig struct {
	HuggingFaceToken string
	HuggingFaceModel string
	RouterModel      string
	OpenRouterToken  string
	GeminiToken      string
	GigaChatKey      string
	GigaChatScope    string
}

type StoreConfig struct {
	Path string
}

type AdminConfig struct {
	Token string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	sheetsTimeout, _ := strconv.Atoi(getEnv("SHEETS_TIMEOUT", "20"))
	contextBudget, _ := strconv.Atoi(getEnv("CHAT_CONTEXT_BUDGET", "20000"))
	historyLimit, _ := strconv.Atoi(getEnv("CHAT_HISTORY_LIMIT", "4"))
	maxTokens, _ := strconv.Atoi(getEnv("CHAT_MAX_TOKENS", "1000"))
	temperature, _ := strconv.ParseFloat(getEnv("CHAT_TEMPERATURE", "0.2"), 64)

	docID := getEnv("SHEETS_DOC_ID", "2PACX-1vSWWVTXdCJPajKKheU3te60ZfgVu8fiAa4JvAUQkwpCH23DhKUAbMlB71m9oX_YDA")

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Sheets: SheetsConfig{
			DocID:   docID,
			BaseURL: getEnv("SHEETS_BASE_URL", "https://docs.google.com/spreadsheets/d/e/"+docID+"/pub?single=true&output=csv"),
			Timeout: time.Duration(sheetsTimeout) * time.Second,
		},
		Chat: ChatConfig{
			ContextBudget: contextBudget,
			HistoryLimit:  historyLimit,
			MaxTokens:     maxTokens,
			Temperature:   temperature,
		},
		Providers: ProvidersConfig{
			HuggingFaceToken: getEnv("HF_TOKEN", ""),
			HuggingFaceModel: getEnv("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.3"),
			RouterModel:      getEnv("HF_ROUTER_MODEL", "Qwen/Qwen2.5-7B-Instruct"),
			OpenRouterToken:  getEnv("OPENROUTER_TOKEN", ""),
			GeminiToken:      getEnv("GEMINI_TOKEN", ""),
			GigaChatKey:      getEnv("GIGACHAT_API_KEY", ""),
			GigaChatScope:    getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "agrimono.db"),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
