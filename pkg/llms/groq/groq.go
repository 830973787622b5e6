// Package groq targets Groq's OpenAI-compatible endpoint for whisper transcription and llama chat models.
package groq

import (
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/openai"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

const (
	providerName      = "groq"
	defaultBaseURL    = "https://api.groq.com/openai/v1"
	defaultTextModel  = "llama-3.3-70b-versatile"
	defaultAudioModel = "whisper-large-v3"
)

var dialect = openai.Dialect{
	ProviderName:      providerName,
	DefaultBaseURL:    defaultBaseURL,
	DefaultTextModel:  defaultTextModel,
	DefaultAudioModel: defaultAudioModel,
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	return openai.NewCompatibleStringContentGenerator(dialect, prompt, opts...)
}

func NewAudioTranscriptionGenerator(audio model.AudioInput, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
	return openai.NewCompatibleAudioTranscriptionGenerator(dialect, audio, opts)
}
