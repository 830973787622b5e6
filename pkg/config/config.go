package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/pipeline"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/registry"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/storage"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

type Config struct {
	DefaultProvider              string `env:"DEFAULT_PROVIDER" envDefault:"groq"`
	DefaultTranscriptionProvider string `env:"DEFAULT_TRANSCRIPTION_PROVIDER" envDefault:"groq"`
	TextModel                    string `env:"TEXT_MODEL"`
	TranscriptionModel           string `env:"TRANSCRIPTION_MODEL"`

	GroqAPIKey      string `env:"GROQ_API_KEY"`
	GroqBaseURL     string `env:"GROQ_BASE_URL"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	HFToken         string `env:"HF_TOKEN"`
	OllamaBaseURL   string `env:"OLLAMA_BASE_URL"`
	AWSRegion       string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID  string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSProfile      string `env:"AWS_PROFILE"`

	MaxFileSizeMB   int    `env:"MAX_FILE_SIZE_MB" envDefault:"25"`
	WhisperLanguage string `env:"WHISPER_LANGUAGE" envDefault:"en"`
	// KeywordsFile is a JSON array of {"word","common_mistypes","definition"} hints.
	KeywordsFile string `env:"TRANSCRIPTION_KEYWORDS_FILE"`

	EnableNotes      bool     `env:"ENABLE_NOTES" envDefault:"true"`
	EnableQuiz       bool     `env:"ENABLE_QUIZ" envDefault:"true"`
	EnableFlashcards bool     `env:"ENABLE_FLASHCARDS" envDefault:"true"`
	NumQuestions     int      `env:"NUM_QUESTIONS" envDefault:"10"`
	NumFlashcards    int      `env:"NUM_FLASHCARDS" envDefault:"15"`
	QuizTypes        []string `env:"QUIZ_TYPES" envSeparator:"," envDefault:"multiple-choice,true-false,short-answer"`
	FlashcardStyle   string   `env:"FLASHCARD_STYLE" envDefault:"qa"`
	MaxTokens        int      `env:"MAX_TOKENS" envDefault:"2000"`
	Temperature      float64  `env:"TEMPERATURE" envDefault:"0.7"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT" envDefault:"text"`

	ExportDir       string        `env:"EXPORT_DIR" envDefault:"./exports"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Prefix        string        `env:"S3_PREFIX"`
	S3Region        string        `env:"S3_REGION"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	ExportDir string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
// SETTINGS_FILE names the .env file when no override is given.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = os.Getenv("SETTINGS_FILE")
	}
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "config.Load", fmt.Sprintf("settings file %s", envFile), err))
		}
	}

	cfg, err := Parse(nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ExportDir != "" {
		cfg.ExportDir = overrides.ExportDir
	}

	return cfg, utils.WrapIfNotNil(cfg.Validate())
}

// Parse reads the given variables, or the process environment when environment is nil.
func Parse(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Environment: environment}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "config.Parse", "environment", err))
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	const op = "config.Validate"
	invalid := func(format string, args ...any) error {
		return model.NewError(model.KindInvalidConfig, op, fmt.Sprintf(format, args...), nil)
	}

	if _, err := registry.ParseVendor(c.DefaultProvider); err != nil {
		return err
	}
	transcription, err := registry.ParseVendor(c.DefaultTranscriptionProvider)
	if err != nil {
		return err
	}
	if spec, _ := registry.Spec(transcription); !spec.SupportsTranscription() {
		return invalid("%s cannot transcribe audio", spec.DisplayName)
	}
	if c.NumQuestions < orchestrator.MinCount || c.NumQuestions > orchestrator.MaxCount {
		return invalid("NUM_QUESTIONS must be between %d and %d, got %d", orchestrator.MinCount, orchestrator.MaxCount, c.NumQuestions)
	}
	if c.NumFlashcards < orchestrator.MinCount || c.NumFlashcards > orchestrator.MaxCount {
		return invalid("NUM_FLASHCARDS must be between %d and %d, got %d", orchestrator.MinCount, orchestrator.MaxCount, c.NumFlashcards)
	}
	if _, err := c.QuestionTypes(); err != nil {
		return err
	}
	if _, err := model.ParseFlashcardStyle(c.FlashcardStyle); err != nil {
		return err
	}
	if c.MaxFileSizeMB <= 0 {
		return invalid("MAX_FILE_SIZE_MB must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.MaxTokens <= 0 {
		return invalid("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return invalid("TEMPERATURE must be between 0 and 2, got %g", c.Temperature)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return invalid("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) QuestionTypes() ([]model.QuestionType, error) {
	types := make([]model.QuestionType, 0, len(c.QuizTypes))
	for _, raw := range c.QuizTypes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		typ, err := model.ParseQuestionType(raw)
		if err != nil {
			return nil, err
		}
		types = append(types, typ)
	}
	if len(types) == 0 {
		return nil, model.NewError(model.KindInvalidConfig, "config.QuestionTypes", "QUIZ_TYPES must name at least one type", nil)
	}
	return types, nil
}

func (c *Config) Credentials() map[registry.Vendor]registry.Credentials {
	return map[registry.Vendor]registry.Credentials{
		registry.Groq:        {APIKey: c.GroqAPIKey, BaseURL: c.GroqBaseURL},
		registry.OpenAI:      {APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL},
		registry.Gemini:      {APIKey: c.GeminiAPIKey},
		registry.Anthropic:   {APIKey: c.AnthropicAPIKey},
		registry.HuggingFace: {APIKey: c.HFToken},
		registry.Ollama:      {BaseURL: c.OllamaBaseURL},
		registry.Bedrock: {
			APIKey:    c.AWSAccessKeyID,
			SecretKey: c.AWSSecretKey,
			Region:    c.AWSRegion,
			Profile:   c.AWSProfile,
		},
	}
}

func (c *Config) Registry() *registry.Registry {
	return registry.New(c.Credentials())
}

// DefaultRequest is the request template a run starts from before per-call overrides.
// Audio is left empty.
func (c *Config) DefaultRequest() (orchestrator.Request, error) {
	types, err := c.QuestionTypes()
	if err != nil {
		return orchestrator.Request{}, utils.WrapIfNotNil(err)
	}
	style, err := model.ParseFlashcardStyle(c.FlashcardStyle)
	if err != nil {
		return orchestrator.Request{}, utils.WrapIfNotNil(err)
	}
	keywords, err := c.Keywords()
	if err != nil {
		return orchestrator.Request{}, utils.WrapIfNotNil(err)
	}

	temperature := c.Temperature
	return orchestrator.Request{
		AudioOptions: model.AudioOptions{
			Language: c.WhisperLanguage,
			MaxBytes: int64(c.MaxFileSizeMB) * 1024 * 1024,
			Keywords: keywords,
		},
		Provider:              c.DefaultProvider,
		TextModel:             c.TextModel,
		TranscriptionProvider: c.DefaultTranscriptionProvider,
		TranscriptionModel:    c.TranscriptionModel,
		EnableNotes:           c.EnableNotes,
		EnableQuiz:            c.EnableQuiz,
		EnableFlashcards:      c.EnableFlashcards,
		NumQuestions:          c.NumQuestions,
		QuizTypes:             types,
		NumFlashcards:         c.NumFlashcards,
		FlashcardStyle:        style,
		Generation: pipeline.GenerationOptions{
			MaxTokens:   c.MaxTokens,
			Temperature: &temperature,
		},
	}, nil
}

func (c *Config) Keywords() ([]model.AudioKeyword, error) {
	if strings.TrimSpace(c.KeywordsFile) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.KeywordsFile)
	if err != nil {
		return nil, model.NewError(model.KindInvalidConfig, "config.Keywords", "read keywords file", err)
	}
	var keywords []model.AudioKeyword
	if err := json.Unmarshal(data, &keywords); err != nil {
		return nil, model.NewError(model.KindInvalidConfig, "config.Keywords", "parse keywords file", err)
	}
	return keywords, nil
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) S3Options() storage.S3Options {
	return storage.S3Options{
		Bucket:        c.S3Bucket,
		Prefix:        c.S3Prefix,
		Region:        c.S3Region,
		Endpoint:      c.S3Endpoint,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PresignExpiry: c.S3PresignExpiry,
	}
}
