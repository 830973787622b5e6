package gemini

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	"google.golang.org/genai"
)

type audioTranscriptionGenerator struct {
	audio    model.AudioInput
	mimeType string
	opts     model.AudioOptions
	cfg      model.GeneratorConfig
}

func NewAudioTranscriptionGenerator(
	audio model.AudioInput,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	err := model.ValidateAudio(audio, opts.EffectiveMaxBytes())
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	mimeType, err := model.AudioMIMEType(audio.Filename)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &audioTranscriptionGenerator{
		audio:    audio,
		mimeType: mimeType,
		opts:     opts.Clone(),
		cfg:      audioGeneratorConfigFromOptions(opts),
	}, nil
}

// Generate returns a single-segment transcript: the generateContent API does not report timestamps.
func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (model.TranscriptResult, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(g.opts)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"audio_transcription_request provider=%s model=%q file=%q bytes=%d",
		providerName,
		modelName,
		g.audio.Filename,
		len(g.audio.Data),
	)

	prompt := buildAudioTranscriptionPrompt(g.opts)
	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(prompt),
				genai.NewPartFromBytes(g.audio.Data, g.mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		err = classifyError(err)
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, meta, utils.WrapIfNotNil(err)
	}

	transcript := ""
	if response != nil {
		transcript = strings.TrimSpace(response.Text())
	}
	if transcript == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "transcription response is empty", nil)
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, meta, utils.WrapIfNotNil(err)
	}

	result := model.SingleSegmentTranscript(transcript, 0)
	result.Language = strings.TrimSpace(g.opts.Language)
	applyGenerateMetadata(meta, response)
	meta[model.MetadataKeySegmentCount] = strconv.Itoa(len(result.Segments))
	return result, meta, nil
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		return modelName
	}
	return defaultGenerationModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		IgnoreInvalidGeneratorOptions: opts.IgnoreInvalidGeneratorOptions,
		URL:                           opts.URL,
		AuthToken:                     opts.AuthToken,
	}
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) string {
	if custom := strings.TrimSpace(opts.Prompt); custom != "" {
		return custom
	}

	base := "Transcribe this lecture audio accurately. Return only the transcript text."
	if language := strings.TrimSpace(opts.Language); language != "" {
		base += " The lecture language is " + language + "."
	}
	words := buildWordsToWatchPrompt(opts.Keywords)
	if words == "" {
		return base
	}
	return base + " Prioritize these terms if present: " + words + "."
}

func buildWordsToWatchPrompt(keywords []model.AudioKeyword) string {
	if len(keywords) == 0 {
		return ""
	}

	words := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		normalized := strings.TrimSpace(keyword.Word)
		if normalized == "" {
			continue
		}
		words = append(words, normalized)
	}
	if len(words) == 0 {
		return ""
	}

	sort.Strings(words)
	return strings.Join(words, ", ")
}
