package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/stretchr/testify/suite"
)

type stubTextGenerator struct {
	target   *stubTextTarget
	contexts []*model.PromptContext
}

func (g *stubTextGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	g.target.contexts = g.contexts
	if g.target.err != nil {
		return "", nil, g.target.err
	}
	return g.target.response, model.GenerationMetadata{
		model.MetadataKeyProvider: "stub",
		model.MetadataKeyModel:    "stub-model",
	}, nil
}

func (g *stubTextGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	g.contexts = append(g.contexts, &model.PromptContext{MessageType: messageType, Content: content})
}

type stubTextTarget struct {
	response string
	err      error
	calls    int
	prompt   string
	config   model.GeneratorConfig
	contexts []*model.PromptContext
}

func (t *stubTextTarget) NewGenerator(prompt string, extra ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	t.calls++
	t.prompt = prompt
	t.config = model.ResolveGeneratorOpts(extra...)
	return &stubTextGenerator{target: t}, nil
}

type stubTranscriptionGenerator struct {
	result model.TranscriptResult
	err    error
}

func (g *stubTranscriptionGenerator) Generate(ctx context.Context) (model.TranscriptResult, model.GenerationMetadata, error) {
	return g.result, model.GenerationMetadata{model.MetadataKeyProvider: "stub"}, g.err
}

type stubTranscriptionTarget struct {
	result model.TranscriptResult
	err    error
}

func (t *stubTranscriptionTarget) NewGenerator(audio model.AudioInput, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
	return &stubTranscriptionGenerator{result: t.result, err: t.err}, nil
}

type StagesSuite struct {
	suite.Suite
	ctx context.Context
}

func TestStagesSuite(t *testing.T) {
	suite.Run(t, new(StagesSuite))
}

func (s *StagesSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *StagesSuite) TestGenerateFlashcardsSingleCard() {
	target := &stubTextTarget{
		response: "FRONT: What does photosynthesis convert light into?\nBACK: Chemical energy stored in glucose",
	}

	set, err := GenerateFlashcards(s.ctx, "Plants turn sunlight into sugar.", FlashcardOptions{NumCards: 1}, target)

	s.Require().NoError(err)
	s.Equal([]model.Flashcard{{
		Front: "What does photosynthesis convert light into?",
		Back:  "Chemical energy stored in glucose",
	}}, set.Cards)
	s.Equal("Create flashcards from this lecture:\n\nPlants turn sunlight into sugar.", target.prompt)
	s.Require().NotNil(target.config.MaxTokens)
	s.Equal(DefaultMaxTokens*2, *target.config.MaxTokens)
	s.Require().Len(target.contexts, 1)
	s.Equal(model.ContextMessageTypeSystem, target.contexts[0].MessageType)
	s.Contains(target.contexts[0].Content, "Create 1 question/answer flashcards")
}

func (s *StagesSuite) TestGenerateFlashcardsTruncates() {
	target := &stubTextTarget{response: "FRONT: a\nBACK: 1\n\nFRONT: b\nBACK: 2\n\nFRONT: c\nBACK: 3"}

	set, err := GenerateFlashcards(s.ctx, "lecture", FlashcardOptions{NumCards: 2, Style: model.FlashcardStyleTerm}, target)

	s.Require().NoError(err)
	s.Len(set.Cards, 2)
	s.Contains(target.contexts[0].Content, "important terms and definitions")
}

func (s *StagesSuite) TestBlankTranscriptSkipsProvider() {
	target := &stubTextTarget{response: "# Notes"}

	_, err := GenerateNotes(s.ctx, "  \n\t", GenerationOptions{}, target)

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindEmptyInput))
	s.Equal(0, target.calls)
}

func (s *StagesSuite) TestGenerateNotesOptions() {
	temperature := 0.2
	target := &stubTextTarget{response: "# Lecture\n\n## Overview\nShort summary."}

	doc, err := GenerateNotes(s.ctx, "transcript", GenerationOptions{MaxTokens: 500, Temperature: &temperature}, target)

	s.Require().NoError(err)
	s.Equal("Lecture", doc.Title())
	s.Len(doc.Sections, 2)
	s.Equal(500, *target.config.MaxTokens)
	s.Equal(0.2, *target.config.Temperature)
	s.Equal(notesSystemPrompt, target.contexts[0].Content)
}

func (s *StagesSuite) TestGenerateNotesIsRepeatable() {
	target := &stubTextTarget{response: "# A\nbody\n## B\nmore"}

	first, err := GenerateNotes(s.ctx, "transcript", GenerationOptions{}, target)
	s.Require().NoError(err)
	second, err := GenerateNotes(s.ctx, "transcript", GenerationOptions{}, target)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(2, target.calls)
}

func (s *StagesSuite) TestProviderErrorIsGenerationFailed() {
	target := &stubTextTarget{err: model.NewError(model.KindRateLimited, "groq", "slow down", nil)}

	_, err := GenerateQuiz(s.ctx, "transcript", QuizOptions{NumQuestions: 3}, target)

	s.Require().Error(err)
	s.Equal(model.KindGenerationFailed, model.KindOf(err))
	s.Equal(model.KindRateLimited, model.RootKind(err))
	s.Contains(err.Error(), "quiz generation failed")
}

func (s *StagesSuite) TestGenerateQuizFiltersUnrequestedTypes() {
	target := &stubTextTarget{response: "Q1: [true-false] Water boils at 100C at sea level.\nAnswer: True\n\n" +
		"Q2: [short-answer] Name the process plants use to make food.\nModel Answer: Photosynthesis\n\n" +
		"Q3: [true-false] Ice sinks in water.\nAnswer: False"}

	quiz, err := GenerateQuiz(s.ctx, "transcript", QuizOptions{
		NumQuestions: 5,
		Types:        []model.QuestionType{model.QuestionTypeTrueFalse},
	}, target)

	s.Require().NoError(err)
	s.Require().Len(quiz.Items, 2)
	for _, item := range quiz.Items {
		s.Equal(model.QuestionTypeTrueFalse, item.Type)
	}
	s.Contains(target.contexts[0].Content, "- True/False: 5")
	s.NotContains(target.contexts[0].Content, "Multiple Choice")
	s.Equal(DefaultMaxTokens*2, *target.config.MaxTokens)
}

func (s *StagesSuite) TestGenerateQuizRejectsZeroQuestions() {
	target := &stubTextTarget{}

	_, err := GenerateQuiz(s.ctx, "transcript", QuizOptions{}, target)

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindInvalidConfig))
	s.Equal(0, target.calls)
}

func (s *StagesSuite) TestGenerateQuizTruncates() {
	target := &stubTextTarget{response: "Q1: [short-answer] One?\nModel Answer: 1\n\nQ2: [short-answer] Two?\nModel Answer: 2"}

	quiz, err := GenerateQuiz(s.ctx, "transcript", QuizOptions{NumQuestions: 1}, target)

	s.Require().NoError(err)
	s.Require().Len(quiz.Items, 1)
	s.Equal("One?", quiz.Items[0].Question)
}

func (s *StagesSuite) TestTranscribeFillsLanguage() {
	target := &stubTranscriptionTarget{result: model.SingleSegmentTranscript("hello class", 3)}

	result, err := Transcribe(s.ctx, model.AudioInput{Filename: "a.mp3", Data: []byte("x")}, model.AudioOptions{Language: "en"}, target)

	s.Require().NoError(err)
	s.Equal("hello class", result.Text)
	s.Equal("en", result.Language)
	s.Len(result.Segments, 1)
}

func (s *StagesSuite) TestTranscribeEmptyText() {
	target := &stubTranscriptionTarget{result: model.TranscriptResult{Text: "   "}}

	_, err := Transcribe(s.ctx, model.AudioInput{Filename: "a.mp3"}, model.AudioOptions{}, target)

	s.Require().Error(err)
	s.Equal(model.KindGenerationFailed, model.KindOf(err))
	s.Equal(model.KindMalformedResponse, model.RootKind(err))
}

func (s *StagesSuite) TestTranscribeProviderError() {
	target := &stubTranscriptionTarget{err: errors.New("boom")}

	_, err := Transcribe(s.ctx, model.AudioInput{Filename: "a.mp3"}, model.AudioOptions{}, target)

	s.Require().Error(err)
	s.True(model.IsKind(err, model.KindGenerationFailed))
	s.Contains(err.Error(), "transcription generation failed")
}
