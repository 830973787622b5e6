package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/registry"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Parse(map[string]string{})
	s.Require().NoError(err)

	s.Equal("groq", cfg.DefaultProvider)
	s.Equal("groq", cfg.DefaultTranscriptionProvider)
	s.Equal(25, cfg.MaxFileSizeMB)
	s.Equal("en", cfg.WhisperLanguage)
	s.Equal(10, cfg.NumQuestions)
	s.Equal(15, cfg.NumFlashcards)
	s.Equal([]string{"multiple-choice", "true-false", "short-answer"}, cfg.QuizTypes)
	s.Equal(2000, cfg.MaxTokens)
	s.Equal(0.7, cfg.Temperature)
	s.Equal(":8080", cfg.HTTPAddr)
	s.Equal(time.Hour, cfg.S3PresignExpiry)
	s.False(cfg.S3Enabled())
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestValidateRanges() {
	cases := map[string]map[string]string{
		"questions low":    {"NUM_QUESTIONS": "4"},
		"questions high":   {"NUM_QUESTIONS": "51"},
		"flashcards low":   {"NUM_FLASHCARDS": "1"},
		"quiz types":       {"QUIZ_TYPES": "essay"},
		"style":            {"FLASHCARD_STYLE": "cloze"},
		"size":             {"MAX_FILE_SIZE_MB": "0"},
		"temperature":      {"TEMPERATURE": "3"},
		"log format":       {"LOG_FORMAT": "xml"},
		"no transcription": {"DEFAULT_TRANSCRIPTION_PROVIDER": "anthropic"},
	}
	for name, environment := range cases {
		cfg, err := Parse(environment)
		s.Require().NoError(err, name)
		err = cfg.Validate()
		s.Require().Error(err, name)
		s.True(model.IsKind(err, model.KindInvalidConfig), name)
	}
}

func (s *ConfigSuite) TestUnknownProvider() {
	cfg, err := Parse(map[string]string{"DEFAULT_PROVIDER": "mystery"})
	s.Require().NoError(err)

	err = cfg.Validate()
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindUnknownProvider))
}

func (s *ConfigSuite) TestBoundsAreInclusive() {
	cfg, err := Parse(map[string]string{"NUM_QUESTIONS": "5", "NUM_FLASHCARDS": "50"})
	s.Require().NoError(err)
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestDefaultRequest() {
	cfg, err := Parse(map[string]string{
		"DEFAULT_PROVIDER": "openai",
		"QUIZ_TYPES":       "true_false, short_answer",
		"FLASHCARD_STYLE":  "term",
		"ENABLE_QUIZ":      "false",
		"MAX_FILE_SIZE_MB": "10",
		"TEMPERATURE":      "0.3",
	})
	s.Require().NoError(err)

	req, err := cfg.DefaultRequest()
	s.Require().NoError(err)

	s.Equal("openai", req.Provider)
	s.Equal("groq", req.TranscriptionProvider)
	s.Equal([]model.QuestionType{model.QuestionTypeTrueFalse, model.QuestionTypeShortAnswer}, req.QuizTypes)
	s.Equal(model.FlashcardStyleTerm, req.FlashcardStyle)
	s.True(req.EnableNotes)
	s.False(req.EnableQuiz)
	s.Equal(int64(10*1024*1024), req.AudioOptions.MaxBytes)
	s.Equal("en", req.AudioOptions.Language)
	s.Equal(2000, req.Generation.MaxTokens)
	s.Require().NotNil(req.Generation.Temperature)
	s.Equal(0.3, *req.Generation.Temperature)
}

func (s *ConfigSuite) TestCredentialsFeedRegistry() {
	cfg, err := Parse(map[string]string{
		"GROQ_API_KEY":          "gsk_test",
		"AWS_ACCESS_KEY_ID":     "AKID",
		"AWS_SECRET_ACCESS_KEY": "secret",
		"OLLAMA_BASE_URL":       "http://ollama:11434",
	})
	s.Require().NoError(err)

	creds := cfg.Credentials()
	s.Equal("gsk_test", creds[registry.Groq].APIKey)
	s.Equal("AKID", creds[registry.Bedrock].APIKey)
	s.Equal("us-east-1", creds[registry.Bedrock].Region)
	s.Equal("http://ollama:11434", creds[registry.Ollama].BaseURL)

	_, err = cfg.Registry().ResolveText("groq", "")
	s.NoError(err)
	_, err = cfg.Registry().ResolveText("openai", "")
	s.True(model.IsKind(err, model.KindNoCredential))
}

func (s *ConfigSuite) TestKeywordsFile() {
	path := filepath.Join(s.T().TempDir(), "keywords.json")
	s.Require().NoError(os.WriteFile(path, []byte(`[{"word":"mitochondria","common_mistypes":["mighty condria"]}]`), 0o600))

	cfg, err := Parse(map[string]string{"TRANSCRIPTION_KEYWORDS_FILE": path})
	s.Require().NoError(err)

	req, err := cfg.DefaultRequest()
	s.Require().NoError(err)
	s.Equal([]model.AudioKeyword{{Word: "mitochondria", CommonMistypes: []string{"mighty condria"}}}, req.AudioOptions.Keywords)
}

func (s *ConfigSuite) TestLoadSettingsFileAndOverrides() {
	path := filepath.Join(s.T().TempDir(), "settings.env")
	s.Require().NoError(os.WriteFile(path, []byte("LECTURE_TEST_UNUSED=1\nNUM_FLASHCARDS=20\n"), 0o600))
	s.T().Setenv("SETTINGS_FILE", path)
	s.T().Cleanup(func() {
		_ = os.Unsetenv("NUM_FLASHCARDS")
		_ = os.Unsetenv("LECTURE_TEST_UNUSED")
	})

	cfg, err := Load(Overrides{HTTPAddr: ":9999"})
	s.Require().NoError(err)
	s.Equal(20, cfg.NumFlashcards)
	s.Equal(":9999", cfg.HTTPAddr)
}

func (s *ConfigSuite) TestLoadRejectsMalformedSettingsFile() {
	path := filepath.Join(s.T().TempDir(), "broken.env")
	s.Require().NoError(os.WriteFile(path, []byte("NUM-FLASHCARDS=20\n"), 0o600))

	cfg, err := Load(Overrides{EnvFile: path})

	s.Require().Error(err)
	s.Nil(cfg)
	s.True(model.IsKind(err, model.KindInvalidConfig))
	s.Contains(err.Error(), "broken.env")
}
