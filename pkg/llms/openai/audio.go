package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
)

type audioTranscriptionGenerator struct {
	client *client
	audio  model.AudioInput
	opts   model.AudioOptions
}

type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func NewAudioTranscriptionGenerator(
	audio model.AudioInput,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	return NewCompatibleAudioTranscriptionGenerator(OpenAIDialect, audio, opts)
}

// NewCompatibleAudioTranscriptionGenerator validates the payload before any client is created.
func NewCompatibleAudioTranscriptionGenerator(
	dialect Dialect,
	audio model.AudioInput,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	err := model.ValidateAudio(audio, opts.EffectiveMaxBytes())
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	cfg := audioGeneratorConfigFromOptions(opts)
	c, err := newClient(dialect, cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &audioTranscriptionGenerator{
		client: c,
		audio:  audio,
		opts:   opts.Clone(),
	}, nil
}

func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (model.TranscriptResult, model.GenerationMetadata, error) {
	start := time.Now()
	provider := g.client.dialect.ProviderName
	modelName := resolveAudioTranscriptionModelName(g.client.dialect, g.opts)
	meta := model.NewGenerationMetadata(provider, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	log.Infof(
		"audio_transcription_request provider=%s model=%q file=%q bytes=%d language=%q",
		provider,
		modelName,
		g.audio.Filename,
		len(g.audio.Data),
		g.opts.Language,
	)

	result, response, err := g.client.runAudioTranscription(ctx, g.audio, g.opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, meta, utils.WrapIfNotNil(err)
	}

	applyOpenAIAudioTranscriptionMetadata(meta, response, result)
	return result, meta, nil
}

func (c *client) runAudioTranscription(
	ctx context.Context,
	audio model.AudioInput,
	opts model.AudioOptions,
) (model.TranscriptResult, *openai.AudioTranscriptionNewResponseUnion, error) {
	provider := c.dialect.ProviderName
	contentType := strings.TrimSpace(audio.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		resolved, err := model.AudioMIMEType(audio.Filename)
		if err != nil {
			return model.TranscriptResult{}, nil, utils.WrapIfNotNil(err)
		}
		contentType = resolved
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   openai.File(bytes.NewReader(audio.Data), filepath.Base(audio.Filename), contentType),
		Model:                  openai.AudioModel(resolveAudioTranscriptionModelName(c.dialect, opts)),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if language := strings.TrimSpace(opts.Language); language != "" {
		params.Language = param.NewOpt(language)
	}
	prompt, err := buildAudioTranscriptionPrompt(opts)
	if err != nil {
		return model.TranscriptResult{}, nil, utils.WrapIfNotNil(err)
	}
	if prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}

	response, err := c.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return model.TranscriptResult{}, nil, utils.WrapIfNotNil(classifyError(provider, err))
	}
	if response == nil {
		return model.TranscriptResult{}, nil, utils.WrapIfNotNil(
			model.NewError(model.KindMalformedResponse, provider, "audio transcriptions API returned nil response", nil),
		)
	}

	result, err := parseVerboseTranscription(provider, response.RawJSON(), response.Text)
	if err != nil {
		return model.TranscriptResult{}, response, utils.WrapIfNotNil(err)
	}
	return result, response, nil
}

// parseVerboseTranscription prefers segment timestamps and falls back to the plain text field.
func parseVerboseTranscription(provider string, raw string, fallbackText string) (model.TranscriptResult, error) {
	var verbose verboseTranscription
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &verbose); err != nil {
			verbose = verboseTranscription{}
		}
	}

	var result model.TranscriptResult
	if len(verbose.Segments) > 0 {
		segments := make([]model.Segment, 0, len(verbose.Segments))
		for _, segment := range verbose.Segments {
			segments = append(segments, model.Segment{Start: segment.Start, End: segment.End, Text: segment.Text})
		}
		result = model.NewTranscriptResult(segments)
		if verbose.Duration > 0 {
			result.Duration = verbose.Duration
		}
	}

	if strings.TrimSpace(result.Text) == "" {
		text := strings.TrimSpace(verbose.Text)
		if text == "" {
			text = strings.TrimSpace(fallbackText)
		}
		result = model.SingleSegmentTranscript(text, verbose.Duration)
	}

	if strings.TrimSpace(result.Text) == "" {
		return model.TranscriptResult{}, model.NewError(model.KindMalformedResponse, provider, "transcription response is empty", nil)
	}
	result.Language = strings.TrimSpace(verbose.Language)
	return result, nil
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) (string, error) {
	customPrompt := strings.TrimSpace(opts.Prompt)
	if customPrompt != "" {
		return customPrompt, nil
	}

	return buildCommonMissedWordsPrompt(opts.Keywords)
}

func buildCommonMissedWordsPrompt(keywords []model.AudioKeyword) (string, error) {
	normalizedKeywords := normalizeAudioKeywords(keywords)
	if len(normalizedKeywords) == 0 {
		return "", nil
	}

	keywordsJSON, err := json.Marshal(normalizedKeywords)
	if err != nil {
		return "", err
	}

	return "Common missed words: " + string(keywordsJSON), nil
}

func normalizeAudioKeywords(keywords []model.AudioKeyword) []model.AudioKeyword {
	if len(keywords) == 0 {
		return nil
	}

	normalized := make([]model.AudioKeyword, 0, len(keywords))
	for _, keyword := range keywords {
		word := strings.TrimSpace(keyword.Word)
		definition := strings.TrimSpace(keyword.Definition)
		commonMistypes := make([]string, 0, len(keyword.CommonMistypes))
		for _, candidate := range keyword.CommonMistypes {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			commonMistypes = append(commonMistypes, candidate)
		}

		if word == "" && definition == "" && len(commonMistypes) == 0 {
			continue
		}

		normalized = append(normalized, model.AudioKeyword{
			Word:           word,
			CommonMistypes: commonMistypes,
			Definition:     definition,
		})
	}

	if len(normalized) == 0 {
		return nil
	}

	return normalized
}

func resolveAudioTranscriptionModelName(dialect Dialect, opts model.AudioOptions) string {
	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		return modelName
	}

	return dialect.DefaultAudioModel
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		IgnoreInvalidGeneratorOptions: opts.IgnoreInvalidGeneratorOptions,
		URL:                           opts.URL,
		AuthToken:                     opts.AuthToken,
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		cfg.Model = &modelName
	}

	return cfg
}

func applyOpenAIAudioTranscriptionMetadata(
	meta model.GenerationMetadata,
	response *openai.AudioTranscriptionNewResponseUnion,
	result model.TranscriptResult,
) {
	if meta == nil {
		return
	}

	meta[model.MetadataKeySegmentCount] = strconv.Itoa(len(result.Segments))
	if result.Duration > 0 {
		meta[model.MetadataKeyAudioDurationSec] = strconv.FormatFloat(result.Duration, 'f', 2, 64)
	}
	if response == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
}
