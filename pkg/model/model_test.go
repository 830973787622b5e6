package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ModelSuite struct {
	suite.Suite
}

func TestModelSuite(t *testing.T) {
	suite.Run(t, new(ModelSuite))
}

func (s *ModelSuite) TestValidateAudioRejectsOversizedPayload() {
	audio := AudioInput{Filename: "lecture.mp3", Data: make([]byte, 11)}

	err := ValidateAudio(audio, 10)

	s.Require().Error(err)
	s.True(IsKind(err, KindPayloadTooLarge))
}

func (s *ModelSuite) TestValidateAudioRejectsEmptyPayload() {
	err := ValidateAudio(AudioInput{Filename: "lecture.mp3"}, 0)

	s.Require().Error(err)
	s.True(IsKind(err, KindEmptyInput))
}

func (s *ModelSuite) TestValidateAudioRejectsUnknownExtension() {
	err := ValidateAudio(AudioInput{Filename: "lecture.txt", Data: []byte("abc")}, 0)

	s.Require().Error(err)
	s.True(IsKind(err, KindUnsupportedFormat))
}

func (s *ModelSuite) TestValidateAudioAcceptsPayloadAtLimit() {
	err := ValidateAudio(AudioInput{Filename: "Lecture.M4A", Data: make([]byte, 10)}, 10)

	s.NoError(err)
}

func (s *ModelSuite) TestAudioMIMEType() {
	mimeType, err := AudioMIMEType("week1.mp3")
	s.Require().NoError(err)
	s.Equal("audio/mpeg", mimeType)

	mimeType, err = AudioMIMEType("week1.flac")
	s.Require().NoError(err)
	s.Equal("audio/flac", mimeType)

	_, err = AudioMIMEType("noext")
	s.Error(err)
}

func (s *ModelSuite) TestCloneAudioOptionsCopiesKeywords() {
	opts := AudioOptions{
		Keywords: []AudioKeyword{
			{Word: "mitochondria", CommonMistypes: []string{"mighty chondria"}},
		},
	}

	cloned := opts.Clone()
	cloned.Keywords[0].Word = "changed"
	cloned.Keywords[0].CommonMistypes[0] = "changed"

	s.Equal("mitochondria", opts.Keywords[0].Word)
	s.Equal("mighty chondria", opts.Keywords[0].CommonMistypes[0])
}

func (s *ModelSuite) TestNewTranscriptResultJoinsSegments() {
	result := NewTranscriptResult([]Segment{
		{Start: 0, End: 2.5, Text: " Welcome to biology. "},
		{Start: 2.5, End: 3, Text: "  "},
		{Start: 3, End: 6, Text: "Today we cover photosynthesis."},
	})

	s.Len(result.Segments, 2)
	s.Equal("Welcome to biology. Today we cover photosynthesis.", result.Text)
	s.Equal(6.0, result.Duration)
}

func (s *ModelSuite) TestSingleSegmentTranscriptBlankIsEmpty() {
	s.Empty(SingleSegmentTranscript("   ", 0).Segments)
}

func (s *ModelSuite) TestIsKindWalksWrappedErrors() {
	inner := NewError(KindRateLimited, "groq", "slow down", nil)
	outer := NewError(KindGenerationFailed, "pipeline.GenerateQuiz", "", fmt.Errorf("call: %w", inner))

	s.True(IsKind(outer, KindGenerationFailed))
	s.True(IsKind(outer, KindRateLimited))
	s.False(IsKind(outer, KindAuthenticationFailed))
	s.Equal(KindGenerationFailed, KindOf(outer))
	s.Equal(KindRateLimited, RootKind(outer))
	s.False(IsKind(errors.New("plain"), KindRateLimited))
}

func (s *ModelSuite) TestQuizItemValid() {
	s.True(QuizItem{Type: QuestionTypeMultipleChoice, Question: "q", Options: []string{"a", "b"}, CorrectIndex: 1}.Valid())
	s.False(QuizItem{Type: QuestionTypeMultipleChoice, Question: "q", Options: []string{"a", "b"}, CorrectIndex: 2}.Valid())
	s.True(QuizItem{Type: QuestionTypeTrueFalse, Question: "q", Options: []string{"True", "False"}, CorrectIndex: 0}.Valid())
	s.True(QuizItem{Type: QuestionTypeShortAnswer, Question: "q", CorrectIndex: -1, Answer: "a"}.Valid())
	s.False(QuizItem{Type: QuestionTypeShortAnswer, Question: "q", CorrectIndex: -1}.Valid())
}

func (s *ModelSuite) TestParseQuestionType() {
	qt, err := ParseQuestionType("multiple_choice")
	s.Require().NoError(err)
	s.Equal(QuestionTypeMultipleChoice, qt)

	qt, err = ParseQuestionType("True-False")
	s.Require().NoError(err)
	s.Equal(QuestionTypeTrueFalse, qt)

	_, err = ParseQuestionType("essay")
	s.True(IsKind(err, KindInvalidConfig))
}

func (s *ModelSuite) TestResolveGeneratorOpts() {
	cfg := ResolveGeneratorOpts(
		WithModel("llama-3.3-70b-versatile"),
		WithTemperature(0.7),
		WithMaxTokens(2000),
		WithAuthToken("key"),
		nil,
	)

	s.Require().NotNil(cfg.Model)
	s.Equal("llama-3.3-70b-versatile", *cfg.Model)
	s.Require().NotNil(cfg.Temperature)
	s.Equal(0.7, *cfg.Temperature)
	s.Require().NotNil(cfg.MaxTokens)
	s.Equal(2000, *cfg.MaxTokens)
	s.Equal("key", cfg.AuthToken)
}
