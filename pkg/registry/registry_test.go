package registry

import (
	"context"
	"testing"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/stretchr/testify/suite"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(map[Vendor]Credentials{
		Groq:   {APIKey: "gsk_test"},
		OpenAI: {APIKey: "sk-test", BaseURL: "http://localhost:9999/v1"},
	})
}

func (s *RegistrySuite) TestParseVendor() {
	vendor, err := ParseVendor(" Groq ")
	s.Require().NoError(err)
	s.Equal(Groq, vendor)

	vendor, err = ParseVendor("hf")
	s.Require().NoError(err)
	s.Equal(HuggingFace, vendor)

	_, err = ParseVendor("cohere")
	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindUnknownProvider))
}

func (s *RegistrySuite) TestResolveTranscriptionDefaultsModel() {
	target, err := s.registry.ResolveTranscription("groq", "")

	s.Require().NoError(err)
	s.Equal("whisper-large-v3", target.Model)
	s.Equal(Groq, target.Config.Vendor)
	s.NotNil(target.New)
}

func (s *RegistrySuite) TestResolveTextErrors() {
	_, err := s.registry.ResolveText("anthropic", "")
	s.True(model.IsKind(err, model.KindNoCredential))

	_, err = s.registry.ResolveText("openai", "gpt-99")
	s.True(model.IsKind(err, model.KindUnknownModel))

	_, err = s.registry.ResolveText("nope", "")
	s.True(model.IsKind(err, model.KindUnknownProvider))
}

func (s *RegistrySuite) TestTranscriptionUnsupportedForTextOnlyVendor() {
	registry := New(map[Vendor]Credentials{Anthropic: {APIKey: "sk-ant"}})

	_, err := registry.ResolveTranscription("anthropic", "")

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindUnsupportedCapability))
}

func (s *RegistrySuite) TestOllamaNeedsNoCredentialAndAcceptsAnyModel() {
	target, err := s.registry.ResolveText("ollama", "phi3:mini")

	s.Require().NoError(err)
	s.Equal("phi3:mini", target.Model)
}

func (s *RegistrySuite) TestBedrockAcceptsProfile() {
	registry := New(map[Vendor]Credentials{Bedrock: {Profile: "lectures"}})

	_, err := registry.ResolveText("bedrock", "")
	s.Require().NoError(err)

	_, err = New(map[Vendor]Credentials{Bedrock: {APIKey: "AKIA"}}).ResolveText("bedrock", "")
	s.True(model.IsKind(err, model.KindNoCredential))
}

func (s *RegistrySuite) TestEveryVendorHasTextFactory() {
	for _, vendor := range Vendors {
		s.NotNil(textFactory(vendor), string(vendor))
		spec, ok := Spec(vendor)
		s.Require().True(ok)
		s.Equal(spec.SupportsTranscription(), transcriptionFactory(vendor) != nil, string(vendor))
	}
}

func (s *RegistrySuite) TestTextTargetPassesCredentialsAndExtras() {
	target, err := s.registry.ResolveText("openai", "gpt-4")
	s.Require().NoError(err)

	var captured model.GeneratorConfig
	target.New = func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
		captured = model.ResolveGeneratorOpts(opts...)
		return nil, nil
	}

	_, err = target.NewGenerator("prompt", model.WithMaxTokens(4000))

	s.Require().NoError(err)
	s.Equal("sk-test", captured.AuthToken)
	s.Equal("http://localhost:9999/v1", captured.URL)
	s.Require().NotNil(captured.Model)
	s.Equal("gpt-4", *captured.Model)
	s.Equal(4000, *captured.MaxTokens)
	s.True(captured.IgnoreInvalidGeneratorOptions)
}

func (s *RegistrySuite) TestTranscriptionTargetFillsAudioOptions() {
	target, err := s.registry.ResolveTranscription("openai", "")
	s.Require().NoError(err)

	var captured model.AudioOptions
	target.New = func(audio model.AudioInput, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
		captured = opts
		return stubTranscriber{}, nil
	}

	_, err = target.NewGenerator(model.AudioInput{Filename: "a.mp3"}, model.AudioOptions{Language: "en"})

	s.Require().NoError(err)
	s.Equal("sk-test", captured.AuthToken)
	s.Equal("whisper-1", captured.Model)
	s.Equal("en", captured.Language)
}

func (s *RegistrySuite) TestCatalogReportsConfiguration() {
	entries := s.registry.Catalog()

	s.Require().Len(entries, len(Vendors))
	byName := map[string]VendorInfo{}
	for _, entry := range entries {
		byName[entry.Name] = entry
	}
	s.True(byName["groq"].Configured)
	s.True(byName["groq"].FreeTier)
	s.False(byName["gemini"].Configured)
	s.True(byName["ollama"].Configured)
	s.Empty(byName["anthropic"].TranscriptionModels)
}

type stubTranscriber struct{}

func (stubTranscriber) Generate(ctx context.Context) (model.TranscriptResult, model.GenerationMetadata, error) {
	return model.TranscriptResult{}, nil, nil
}
