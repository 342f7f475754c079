package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress     string
	GeminiAPIKey    string
	GeminiModelID   string
	DefaultLanguage string
}

// Load reads environment variables and returns Config with sane defaults.
// A missing GEMINI_API_KEY is fatal: without it no model call can succeed.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded; using process environment")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	model := os.Getenv("GEMINI_MODEL_ID")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	lang := os.Getenv("DEFAULT_LANGUAGE")
	if lang == "" {
		lang = "en-US"
	}

	log.Printf("config: HTTP_ADDRESS=%s model=%s lang=%s", addr, model, lang)
	return Config{
		HTTPAddress:     addr,
		GeminiAPIKey:    apiKey,
		GeminiModelID:   model,
		DefaultLanguage: lang,
	}, nil
}
