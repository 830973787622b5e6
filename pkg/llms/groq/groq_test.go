package groq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/stretchr/testify/suite"
)

type GroqSuite struct {
	suite.Suite
}

func TestGroqSuite(t *testing.T) {
	suite.Run(t, new(GroqSuite))
}

func (s *GroqSuite) TestDialectDefaults() {
	s.Equal("groq", dialect.ProviderName)
	s.Equal("https://api.groq.com/openai/v1", dialect.DefaultBaseURL)
	s.Equal("llama-3.3-70b-versatile", dialect.DefaultTextModel)
	s.Equal("whisper-large-v3", dialect.DefaultAudioModel)
}

func (s *GroqSuite) TestOversizedAudioFailsWithoutNetwork() {
	_, err := NewAudioTranscriptionGenerator(
		model.AudioInput{Filename: "lecture.wav", Data: make([]byte, 2048)},
		model.AudioOptions{AuthToken: "k", MaxBytes: 1024},
	)

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindPayloadTooLarge))
}

func (s *GroqSuite) TestGenerateSendsDefaultModel() {
	var requestedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		requestedModel, _ = payload["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama-3.3-70b-versatile",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"FRONT: a\nBACK: b"}}]}`))
	}))
	defer server.Close()

	generator, err := NewStringContentGenerator("make cards", model.WithAuthToken("k"), model.WithURL(server.URL))
	s.Require().NoError(err)

	text, meta, err := generator.Generate(context.Background())

	s.Require().NoError(err)
	s.Equal("FRONT: a\nBACK: b", text)
	s.Equal("llama-3.3-70b-versatile", requestedModel)
	s.Equal("groq", meta[model.MetadataKeyProvider])
}
