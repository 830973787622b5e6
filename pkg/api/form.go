package api

import (
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
)

// processForm holds the optional per-run overrides sent next to the audio upload.
type processForm struct {
	Provider              string   `form:"provider"`
	TextModel             string   `form:"text_model"`
	TranscriptionProvider string   `form:"transcription_provider"`
	TranscriptionModel    string   `form:"transcription_model"`
	Language              string   `form:"language"`
	Notes                 *bool    `form:"notes"`
	Quiz                  *bool    `form:"quiz"`
	Flashcards            *bool    `form:"flashcards"`
	NumQuestions          *int     `form:"num_questions"`
	NumFlashcards         *int     `form:"num_flashcards"`
	QuizTypes             string   `form:"quiz_types"`
	FlashcardStyle        string   `form:"flashcard_style"`
	MaxTokens             *int     `form:"max_tokens"`
	Temperature           *float64 `form:"temperature"`
}

func (f processForm) apply(defaults orchestrator.Request) (orchestrator.Request, error) {
	const op = "api.processForm.apply"
	req := defaults
	req.AudioOptions = defaults.AudioOptions.Clone()
	req.QuizTypes = append([]model.QuestionType(nil), defaults.QuizTypes...)

	if v := strings.TrimSpace(f.Provider); v != "" {
		req.Provider = v
		req.TextModel = ""
	}
	if v := strings.TrimSpace(f.TextModel); v != "" {
		req.TextModel = v
	}
	if v := strings.TrimSpace(f.TranscriptionProvider); v != "" {
		req.TranscriptionProvider = v
		req.TranscriptionModel = ""
	}
	if v := strings.TrimSpace(f.TranscriptionModel); v != "" {
		req.TranscriptionModel = v
	}
	if v := strings.TrimSpace(f.Language); v != "" {
		req.AudioOptions.Language = v
	}
	if f.Notes != nil {
		req.EnableNotes = *f.Notes
	}
	if f.Quiz != nil {
		req.EnableQuiz = *f.Quiz
	}
	if f.Flashcards != nil {
		req.EnableFlashcards = *f.Flashcards
	}

	if f.NumQuestions != nil {
		if err := checkCount(op, "num_questions", *f.NumQuestions); err != nil {
			return orchestrator.Request{}, err
		}
		req.NumQuestions = *f.NumQuestions
	}
	if f.NumFlashcards != nil {
		if err := checkCount(op, "num_flashcards", *f.NumFlashcards); err != nil {
			return orchestrator.Request{}, err
		}
		req.NumFlashcards = *f.NumFlashcards
	}

	if strings.TrimSpace(f.QuizTypes) != "" {
		types := make([]model.QuestionType, 0, 3)
		for _, raw := range strings.Split(f.QuizTypes, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			typ, err := model.ParseQuestionType(raw)
			if err != nil {
				return orchestrator.Request{}, err
			}
			types = append(types, typ)
		}
		req.QuizTypes = types
	}
	if strings.TrimSpace(f.FlashcardStyle) != "" {
		style, err := model.ParseFlashcardStyle(f.FlashcardStyle)
		if err != nil {
			return orchestrator.Request{}, err
		}
		req.FlashcardStyle = style
	}

	if f.MaxTokens != nil {
		if *f.MaxTokens <= 0 {
			return orchestrator.Request{}, model.NewError(model.KindInvalidConfig, op, "max_tokens must be positive", nil)
		}
		req.Generation.MaxTokens = *f.MaxTokens
	}
	if f.Temperature != nil {
		temperature := *f.Temperature
		req.Generation.Temperature = &temperature
	}
	return req, nil
}

func checkCount(op string, field string, value int) error {
	if value < orchestrator.MinCount || value > orchestrator.MaxCount {
		return model.NewError(
			model.KindInvalidConfig,
			op,
			fmt.Sprintf("%s must be between %d and %d, got %d", field, orchestrator.MinCount, orchestrator.MaxCount, value),
			nil,
		)
	}
	return nil
}
