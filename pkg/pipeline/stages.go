package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
)

// TextTarget builds text generators bound to a provider and model; registry.TextTarget implements it.
type TextTarget interface {
	NewGenerator(prompt string, extra ...model.GeneratorOption) (model.ContentGenerator[string], error)
}

// TranscriptionTarget builds transcription generators; registry.TranscriptionTarget implements it.
type TranscriptionTarget interface {
	NewGenerator(audio model.AudioInput, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error)
}

type GenerationOptions struct {
	MaxTokens   int
	Temperature *float64
}

func (o GenerationOptions) generatorOptions(tokenMultiplier int) []model.GeneratorOption {
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := DefaultTemperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	return []model.GeneratorOption{
		model.WithMaxTokens(maxTokens * tokenMultiplier),
		model.WithTemperature(temperature),
	}
}

type QuizOptions struct {
	GenerationOptions
	NumQuestions int
	Types        []model.QuestionType
}

type FlashcardOptions struct {
	GenerationOptions
	NumCards int
	Style    model.FlashcardStyle
}

// Transcribe runs the transcription target and rejects an empty transcript.
func Transcribe(
	ctx context.Context,
	audio model.AudioInput,
	opts model.AudioOptions,
	target TranscriptionTarget,
) (model.TranscriptResult, error) {
	const op = "pipeline.Transcribe"
	log := logging.NewLogger(ctx)

	generator, err := target.NewGenerator(audio, opts)
	if err != nil {
		err = stageFailure(op, model.StageTranscription, err)
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, utils.WrapIfNotNil(err)
	}

	result, meta, err := generator.Generate(ctx)
	if err != nil {
		err = stageFailure(op, model.StageTranscription, err)
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, utils.WrapIfNotNil(err)
	}
	if strings.TrimSpace(result.Text) == "" {
		err = stageFailure(op, model.StageTranscription, model.NewError(
			model.KindMalformedResponse,
			meta[model.MetadataKeyProvider],
			"transcript is empty",
			nil,
		))
		log.Errorf("error: %v", err)
		return model.TranscriptResult{}, utils.WrapIfNotNil(err)
	}
	if result.Language == "" {
		result.Language = strings.TrimSpace(opts.Language)
	}

	log.Infof(
		"stage=%s provider=%s model=%s segments=%d chars=%d latency_ms=%s",
		model.StageTranscription,
		meta[model.MetadataKeyProvider],
		meta[model.MetadataKeyModel],
		len(result.Segments),
		len(result.Text),
		meta[model.MetadataKeyLatencyMs],
	)
	return result, nil
}

func GenerateNotes(ctx context.Context, transcript string, opts GenerationOptions, target TextTarget) (model.NotesDocument, error) {
	const op = "pipeline.GenerateNotes"
	if err := requireTranscript(op, transcript); err != nil {
		return model.NotesDocument{}, utils.WrapIfNotNil(err)
	}

	text, err := generateText(ctx, op, model.StageNotes, target, notesSystemPrompt, notesUserPrompt(transcript), opts.generatorOptions(1))
	if err != nil {
		return model.NotesDocument{}, utils.WrapIfNotNil(err)
	}

	parsed := ParseNotes(text)
	logParse(ctx, model.StageNotes, len(parsed.Items), parsed.Dropped)
	return model.NotesDocument{Sections: parsed.Items}, nil
}

// GenerateQuiz returns at most NumQuestions items of the requested types. Items of other
// types are discarded like malformed ones.
func GenerateQuiz(ctx context.Context, transcript string, opts QuizOptions, target TextTarget) (model.Quiz, error) {
	const op = "pipeline.GenerateQuiz"
	if err := requireTranscript(op, transcript); err != nil {
		return model.Quiz{}, utils.WrapIfNotNil(err)
	}
	if opts.NumQuestions < 1 {
		return model.Quiz{}, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, op, "question count must be at least 1", nil))
	}

	types := normalizeQuestionTypes(opts.Types)
	systemPrompt := quizSystemPrompt(opts.NumQuestions, types)
	text, err := generateText(ctx, op, model.StageQuiz, target, systemPrompt, quizUserPrompt(transcript), opts.generatorOptions(2))
	if err != nil {
		return model.Quiz{}, utils.WrapIfNotNil(err)
	}

	parsed := ParseQuiz(text)
	wanted := make(map[model.QuestionType]bool, len(types))
	for _, typ := range types {
		wanted[typ] = true
	}

	items := make([]model.QuizItem, 0, len(parsed.Items))
	dropped := parsed.Dropped
	for _, item := range parsed.Items {
		if !wanted[item.Type] {
			dropped++
			continue
		}
		items = append(items, item)
	}
	if len(items) > opts.NumQuestions {
		items = items[:opts.NumQuestions]
	}

	logParse(ctx, model.StageQuiz, len(items), dropped)
	return model.Quiz{Items: items}, nil
}

func GenerateFlashcards(ctx context.Context, transcript string, opts FlashcardOptions, target TextTarget) (model.FlashcardSet, error) {
	const op = "pipeline.GenerateFlashcards"
	if err := requireTranscript(op, transcript); err != nil {
		return model.FlashcardSet{}, utils.WrapIfNotNil(err)
	}
	if opts.NumCards < 1 {
		return model.FlashcardSet{}, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, op, "card count must be at least 1", nil))
	}

	systemPrompt := flashcardSystemPrompt(opts.NumCards, opts.Style)
	text, err := generateText(ctx, op, model.StageFlashcards, target, systemPrompt, flashcardUserPrompt(transcript), opts.generatorOptions(2))
	if err != nil {
		return model.FlashcardSet{}, utils.WrapIfNotNil(err)
	}

	parsed := ParseFlashcards(text)
	cards := parsed.Items
	if len(cards) > opts.NumCards {
		cards = cards[:opts.NumCards]
	}

	logParse(ctx, model.StageFlashcards, len(cards), parsed.Dropped)
	return model.FlashcardSet{Cards: cards}, nil
}

func generateText(
	ctx context.Context,
	op string,
	stage model.Stage,
	target TextTarget,
	systemPrompt string,
	userPrompt string,
	opts []model.GeneratorOption,
) (string, error) {
	log := logging.NewLogger(ctx)

	generator, err := target.NewGenerator(userPrompt, opts...)
	if err != nil {
		err = stageFailure(op, stage, err)
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(err)
	}
	generator.AddPromptContext(ctx, model.ContextMessageTypeSystem, systemPrompt)

	text, meta, err := generator.Generate(ctx)
	if err != nil {
		err = stageFailure(op, stage, err)
		log.Errorf("error: %v", err)
		return "", utils.WrapIfNotNil(err)
	}

	log.Infof(
		"stage=%s provider=%s model=%s response_chars=%d total_tokens=%s latency_ms=%s",
		stage,
		meta[model.MetadataKeyProvider],
		meta[model.MetadataKeyModel],
		len(text),
		meta[model.MetadataKeyTotalTokens],
		meta[model.MetadataKeyLatencyMs],
	)
	return text, nil
}

func requireTranscript(op string, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return model.NewError(model.KindEmptyInput, op, "transcript is blank", nil)
	}
	return nil
}

func stageFailure(op string, stage model.Stage, err error) error {
	return model.NewError(model.KindGenerationFailed, op, fmt.Sprintf("%s generation failed", stage), err)
}

func logParse(ctx context.Context, stage model.Stage, kept int, dropped int) {
	log := logging.NewLogger(ctx)
	if dropped > 0 {
		log.Debugf("stage=%s parsed=%d dropped=%d", stage, kept, dropped)
		return
	}
	log.Debugf("stage=%s parsed=%d", stage, kept)
}
