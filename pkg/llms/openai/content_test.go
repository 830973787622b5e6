package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	openai "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/suite"
)

type ContentSuite struct {
	suite.Suite
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) TestEmptyPromptReturnsError() {
	_, err := NewStringContentGenerator("  ", model.WithAuthToken("tok"))

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindEmptyInput))
}

func (s *ContentSuite) TestMissingTokenIsAuthenticationFailure() {
	_, err := NewStringContentGenerator("prompt")

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindAuthenticationFailed))
}

func (s *ContentSuite) TestBuildMessagesWithContext() {
	messages, contextCount := buildMessagesWithContext("final prompt", []*model.PromptContext{
		{MessageType: model.ContextMessageTypeSystem, Content: "system content"},
		nil,
		{MessageType: model.ContextMessageTypeHuman, Content: "  "},
		{MessageType: model.ContextMessageTypeAssistant, Content: "earlier answer"},
	})

	s.Equal(2, contextCount)
	s.Require().Len(messages, 3)
	s.Require().NotNil(messages[0].OfSystem)
	s.Equal("system content", messages[0].OfSystem.Content.OfString.Value)
	s.Require().NotNil(messages[1].OfAssistant)
	s.Require().NotNil(messages[2].OfUser)
	s.Equal("final prompt", messages[2].OfUser.Content.OfString.Value)
}

func (s *ContentSuite) TestExtractTextFromCompletion() {
	s.Equal("", extractTextFromCompletion(nil))
	s.Equal("", extractTextFromCompletion(&openai.ChatCompletion{}))
}

func (s *ContentSuite) TestTextModelFallsBackToDialectDefault() {
	s.Equal("gpt-3.5-turbo", model.GeneratorConfig{}.ModelOrDefault(OpenAIDialect.DefaultTextModel))
	s.Equal("gpt-4", model.ResolveGeneratorOpts(model.WithModel(" gpt-4 ")).ModelOrDefault(OpenAIDialect.DefaultTextModel))
}

func (s *ContentSuite) TestGenerateAgainstCompatibleServer() {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"llama-3.3-70b-versatile",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" # Notes\n- point "}}],
			"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`))
	}))
	defer server.Close()

	generator, err := NewCompatibleStringContentGenerator(
		Dialect{ProviderName: "groq", DefaultTextModel: "llama-3.3-70b-versatile"},
		"Please create structured notes from this lecture:\n\ncells",
		model.WithAuthToken("test-key"),
		model.WithURL(server.URL),
		model.WithTemperature(0.7),
		model.WithMaxTokens(2000),
	)
	s.Require().NoError(err)
	generator.AddPromptContext(context.Background(), model.ContextMessageTypeSystem, "You are a note taker.")

	text, meta, err := generator.Generate(context.Background())

	s.Require().NoError(err)
	s.Equal("# Notes\n- point", text)
	s.Equal("Bearer test-key", gotAuth)
	s.Equal("groq", meta[model.MetadataKeyProvider])
	s.Equal("16", meta[model.MetadataKeyTotalTokens])
	s.Equal("chatcmpl-1", meta[model.MetadataKeyResponseID])
	s.Equal("stop", meta[model.MetadataKeyResponseStatus])
}

func (s *ContentSuite) TestGenerateClassifiesVendorErrors() {
	cases := []struct {
		status int
		kind   model.ErrorKind
	}{
		{http.StatusUnauthorized, model.KindAuthenticationFailed},
		{http.StatusTooManyRequests, model.KindRateLimited},
		{http.StatusServiceUnavailable, model.KindTransientNetworkError},
		{http.StatusBadRequest, model.KindRequestRejected},
	}

	for _, tc := range cases {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"vendor says no","type":"error"}}`))
		}))

		generator, err := NewStringContentGenerator("prompt", model.WithAuthToken("k"), model.WithURL(server.URL))
		s.Require().NoError(err)

		_, _, err = generator.Generate(context.Background())

		s.Require().Error(err)
		s.True(model.IsKind(err, tc.kind), "status %d produced %v", tc.status, err)
		s.Equal(1, calls, "no retries expected for status %d", tc.status)
		server.Close()
	}
}

func (s *ContentSuite) TestGenerateEmptyChoicesIsMalformed() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4","choices":[]}`))
	}))
	defer server.Close()

	generator, err := NewStringContentGenerator("prompt", model.WithAuthToken("k"), model.WithURL(server.URL))
	s.Require().NoError(err)

	_, _, err = generator.Generate(context.Background())

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindMalformedResponse))
}
