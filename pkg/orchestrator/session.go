package orchestrator

import (
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

type State string

const (
	StateIdle                 State = "idle"
	StateTranscribing         State = "transcribing"
	StateGeneratingNotes      State = "generating_notes"
	StateGeneratingQuiz       State = "generating_quiz"
	StateGeneratingFlashcards State = "generating_flashcards"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailed         Outcome = "failed"
	OutcomeCancelled      Outcome = "cancelled"
)

// Transition is one entry of the state history.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// SessionResult is everything one run produced. Outputs are set once and never changed;
// reprocessing builds a new SessionResult.
type SessionResult struct {
	ID          string                 `json:"id"`
	AudioName   string                 `json:"audio_name"`
	CreatedAt   time.Time              `json:"created_at"`
	Transcript  model.TranscriptResult `json:"transcript"`
	Notes       *model.NotesDocument   `json:"notes,omitempty"`
	Quiz        *model.Quiz            `json:"quiz,omitempty"`
	Flashcards  *model.FlashcardSet    `json:"flashcards,omitempty"`
	StageErrors map[model.Stage]string `json:"stage_errors,omitempty"`
	State       State                  `json:"state"`
	Outcome     Outcome                `json:"outcome"`
	History     []Transition           `json:"history"`
}

func (r *SessionResult) enter(state State) {
	r.State = state
	r.History = append(r.History, Transition{State: state, At: time.Now().UTC()})
}

func (r *SessionResult) recordStageError(stage model.Stage, err error) {
	if r.StageErrors == nil {
		r.StageErrors = make(map[model.Stage]string)
	}
	r.StageErrors[stage] = err.Error()
}

// Has reports whether the content is present, for exports.
func (r *SessionResult) Has(stage model.Stage) bool {
	switch stage {
	case model.StageTranscription:
		return r.Transcript.Text != ""
	case model.StageNotes:
		return r.Notes != nil
	case model.StageQuiz:
		return r.Quiz != nil
	case model.StageFlashcards:
		return r.Flashcards != nil
	}
	return false
}
