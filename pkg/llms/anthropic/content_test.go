package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ContentSuite struct {
	suite.Suite
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) TestBuildMessagesWithContext() {
	system, messages, contextCount := buildMessagesWithContext("final prompt", []*model.PromptContext{
		{
			MessageType: model.ContextMessageTypeSystem,
			Content:     "system one",
		},
		{
			MessageType: model.ContextMessageTypeHuman,
			Content:     "human context",
		},
		nil,
		{
			MessageType: model.ContextMessageTypeAssistant,
			Content:     "assistant context",
		},
	})

	s.Equal(3, contextCount)
	s.Equal("system one", system)
	s.Require().Len(messages, 3)
	s.Equal("user", messages[0].Role)
	s.Equal("human context", messages[0].Content[0].Text)
	s.Equal("assistant", messages[1].Role)
	s.Equal("assistant context", messages[1].Content[0].Text)
	s.Equal("user", messages[2].Role)
	s.Equal("final prompt", messages[2].Content[0].Text)
}

func (s *ContentSuite) TestMissingTokenIsAuthenticationFailure() {
	_, err := NewStringContentGenerator("prompt")

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindAuthenticationFailed))
}

func (s *ContentSuite) TestTemperatureOutOfRange() {
	cfg := model.ResolveGeneratorOpts(model.WithTemperature(1.7))
	_, err := normalizeGeneratorOptionsForProvider(cfg, nil)
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindInvalidConfig))

	cfg = model.ResolveGeneratorOpts(model.WithTemperature(1.7), model.WithIgnoreInvalidGeneratorOptions(true))
	normalized, err := normalizeGeneratorOptionsForProvider(cfg, nil)
	s.Require().NoError(err)
	s.Require().NotNil(normalized.Temperature)
	s.Equal(1.0, *normalized.Temperature)
}

func (s *ContentSuite) TestGenerateAgainstMessagesServer() {
	var captured anthropicMessageRequest
	var gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-latest",
			"content":[{"type":"text","text":"# Notes"},{"type":"text","text":"- point"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	generator, err := NewStringContentGenerator(
		"Please create structured notes",
		model.WithAuthToken("sk-test"),
		model.WithURL(server.URL),
		model.WithMaxTokens(2000),
	)
	s.Require().NoError(err)
	generator.AddPromptContext(context.Background(), model.ContextMessageTypeSystem, "You are a study assistant.")

	text, meta, err := generator.Generate(context.Background())

	s.Require().NoError(err)
	s.Equal("# Notes\n- point", text)
	s.Equal("sk-test", gotKey)
	s.Equal(anthropicVersion, gotVersion)
	s.Equal("You are a study assistant.", captured.System)
	s.Equal(2000, captured.MaxTokens)
	s.Require().Len(captured.Messages, 1)
	s.Equal("15", meta[model.MetadataKeyTotalTokens])
	s.Equal("end_turn", meta[model.MetadataKeyResponseStatus])
	s.Equal("msg_1", meta[model.MetadataKeyResponseID])
}

func (s *ContentSuite) TestGenerateRateLimited() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	generator, err := NewStringContentGenerator("prompt", model.WithAuthToken("sk-test"), model.WithURL(server.URL))
	s.Require().NoError(err)

	_, meta, err := generator.Generate(context.Background())

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindRateLimited))
	s.Contains(err.Error(), "slow down")
	s.Equal(providerName, meta[model.MetadataKeyProvider])
}

func (s *ContentSuite) TestGenerateEmptyContentIsMalformed() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_2","content":[]}`))
	}))
	defer server.Close()

	generator, err := NewStringContentGenerator("prompt", model.WithAuthToken("sk-test"), model.WithURL(server.URL))
	s.Require().NoError(err)

	_, _, err = generator.Generate(context.Background())

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindMalformedResponse))
}
