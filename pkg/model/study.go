package model

import (
	"fmt"
	"strings"
)

type Stage string

const (
	StageTranscription Stage = "transcription"
	StageNotes         Stage = "notes"
	StageQuiz          Stage = "quiz"
	StageFlashcards    Stage = "flashcards"
)

// Segment times are seconds from the start of the recording.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscriptResult struct {
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}

// NewTranscriptResult assembles a transcript from ordered segments.
// Blank segments are skipped and the full text is the space-joined segment text.
func NewTranscriptResult(segments []Segment) TranscriptResult {
	kept := make([]Segment, 0, len(segments))
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		segment.Text = text
		kept = append(kept, segment)
		parts = append(parts, text)
	}

	result := TranscriptResult{
		Segments: kept,
		Text:     strings.Join(parts, " "),
	}
	if len(kept) > 0 {
		result.Duration = kept[len(kept)-1].End
	}
	return result
}

// SingleSegmentTranscript is used for providers that return text without timestamps.
func SingleSegmentTranscript(text string, duration float64) TranscriptResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return TranscriptResult{}
	}
	return TranscriptResult{
		Segments: []Segment{{Start: 0, End: duration, Text: text}},
		Text:     text,
		Duration: duration,
	}
}

type Section struct {
	// Level is the markdown heading depth, 0 for the unheaded section.
	Level   int    `json:"level"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body,omitempty"`
}

type NotesDocument struct {
	Sections []Section `json:"sections"`
}

func (d NotesDocument) Title() string {
	for _, section := range d.Sections {
		if section.Level == 1 && section.Heading != "" {
			return section.Heading
		}
	}
	return ""
}

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
)

var AllQuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
}

// ParseQuestionType accepts the hyphenated names plus the underscore spellings used in env files.
func ParseQuestionType(value string) (QuestionType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	switch normalized {
	case "multiple-choice", "mc", "mcq":
		return QuestionTypeMultipleChoice, nil
	case "true-false", "tf", "true/false":
		return QuestionTypeTrueFalse, nil
	case "short-answer", "sa", "open":
		return QuestionTypeShortAnswer, nil
	}
	return "", NewError(KindInvalidConfig, "model.ParseQuestionType", fmt.Sprintf("unknown quiz type %q", value), nil)
}

type QuizItem struct {
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options"`
	// CorrectIndex points into Options; -1 for short-answer items.
	CorrectIndex int    `json:"correct_index"`
	Answer       string `json:"answer"`
	Explanation  string `json:"explanation,omitempty"`
}

// Valid reports whether the item satisfies the answer-index invariant for its type.
func (q QuizItem) Valid() bool {
	if strings.TrimSpace(q.Question) == "" {
		return false
	}
	switch q.Type {
	case QuestionTypeMultipleChoice:
		return len(q.Options) >= 2 && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
	case QuestionTypeTrueFalse:
		return len(q.Options) == 2 && q.CorrectIndex >= 0 && q.CorrectIndex < 2
	case QuestionTypeShortAnswer:
		return len(q.Options) == 0 && q.CorrectIndex == -1 && strings.TrimSpace(q.Answer) != ""
	}
	return false
}

type Quiz struct {
	Items []QuizItem `json:"items"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardSet struct {
	Cards []Flashcard `json:"cards"`
}

type FlashcardStyle string

const (
	FlashcardStyleTerm    FlashcardStyle = "term"
	FlashcardStyleQA      FlashcardStyle = "qa"
	FlashcardStyleConcept FlashcardStyle = "concept"
	// FlashcardStyleMixed blends terms, questions and concepts in one set.
	FlashcardStyleMixed FlashcardStyle = "mixed"
)

func ParseFlashcardStyle(value string) (FlashcardStyle, error) {
	switch FlashcardStyle(strings.ToLower(strings.TrimSpace(value))) {
	case "", FlashcardStyleQA:
		return FlashcardStyleQA, nil
	case FlashcardStyleTerm:
		return FlashcardStyleTerm, nil
	case FlashcardStyleConcept:
		return FlashcardStyleConcept, nil
	case FlashcardStyleMixed:
		return FlashcardStyleMixed, nil
	}
	return "", NewError(KindInvalidConfig, "model.ParseFlashcardStyle", fmt.Sprintf("unknown flashcard style %q", value), nil)
}
