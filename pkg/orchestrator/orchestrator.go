package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/metrics"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/pipeline"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/registry"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

// Count bounds for quiz questions and flashcards at the user-facing surfaces.
const (
	MinCount = 5
	MaxCount = 50
)

// Resolver turns provider names into bound targets. *registry.Registry implements it.
type Resolver interface {
	ResolveTranscription(vendorName string, modelName string) (registry.TranscriptionTarget, error)
	ResolveText(vendorName string, modelName string) (registry.TextTarget, error)
}

type Request struct {
	// SessionID is kept when reprocessing; empty assigns a new id.
	SessionID    string
	Audio        model.AudioInput
	AudioOptions model.AudioOptions

	Provider              string
	TextModel             string
	TranscriptionProvider string
	TranscriptionModel    string

	EnableNotes      bool
	EnableQuiz       bool
	EnableFlashcards bool

	NumQuestions   int
	QuizTypes      []model.QuestionType
	NumFlashcards  int
	FlashcardStyle model.FlashcardStyle

	Generation pipeline.GenerationOptions
}

func (r Request) textStagesEnabled() bool {
	return r.EnableNotes || r.EnableQuiz || r.EnableFlashcards
}

func (r Request) totalSteps() int {
	steps := 1
	for _, enabled := range []bool{r.EnableNotes, r.EnableQuiz, r.EnableFlashcards} {
		if enabled {
			steps++
		}
	}
	return steps
}

// Validate checks the request shape. Count ranges are enforced by config and the API.
func (r Request) Validate() error {
	const op = "orchestrator.Request.Validate"
	if strings.TrimSpace(r.TranscriptionProvider) == "" {
		return model.NewError(model.KindInvalidConfig, op, "transcription provider is required", nil)
	}
	if r.textStagesEnabled() && strings.TrimSpace(r.Provider) == "" {
		return model.NewError(model.KindInvalidConfig, op, "provider is required", nil)
	}
	if r.EnableQuiz && r.NumQuestions < 1 {
		return model.NewError(model.KindInvalidConfig, op, "question count must be at least 1", nil)
	}
	if r.EnableFlashcards && r.NumFlashcards < 1 {
		return model.NewError(model.KindInvalidConfig, op, "flashcard count must be at least 1", nil)
	}
	return nil
}

type Progress struct {
	SessionID  string      `json:"session_id"`
	State      State       `json:"state"`
	Stage      model.Stage `json:"stage,omitempty"`
	Step       int         `json:"step"`
	TotalSteps int         `json:"total_steps"`
}

type ProgressFunc func(Progress)

type Option func(*Orchestrator)

func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

type Orchestrator struct {
	resolver Resolver
	progress ProgressFunc
}

func New(resolver Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{resolver: resolver}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

type optionalStage struct {
	stage   model.Stage
	state   State
	enabled bool
	run     func(ctx context.Context, transcript string) error
}

// Run processes one audio file. The returned SessionResult is non-nil whenever the request was
// valid, including failed and cancelled runs, so callers can keep what completed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*SessionResult, error) {
	log := logging.NewLogger(ctx)

	if err := req.Validate(); err != nil {
		log.Errorf("error: %v", err)
		return nil, utils.WrapIfNotNil(err)
	}

	result := &SessionResult{
		ID:        req.SessionID,
		AudioName: req.Audio.Filename,
		CreatedAt: time.Now().UTC(),
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.enter(StateIdle)
	ctx = logging.ContextWithSessionID(ctx, result.ID)
	log = logging.NewLogger(ctx)

	transcriber, err := o.resolver.ResolveTranscription(req.TranscriptionProvider, req.TranscriptionModel)
	if err != nil {
		return o.fail(ctx, result, "", err)
	}
	var writer registry.TextTarget
	if req.textStagesEnabled() {
		writer, err = o.resolver.ResolveText(req.Provider, req.TextModel)
		if err != nil {
			return o.fail(ctx, result, "", err)
		}
	}

	total := req.totalSteps()
	step := 1

	if err := checkCancelled(ctx); err != nil {
		return o.cancel(ctx, result, err)
	}
	result.enter(StateTranscribing)
	o.report(ctx, result, model.StageTranscription, step, total)

	start := time.Now()
	stageCtx := logging.ContextWithStage(ctx, string(model.StageTranscription))
	transcript, err := pipeline.Transcribe(stageCtx, req.Audio, req.AudioOptions, transcriber)
	if err != nil {
		metrics.ObserveStage(string(model.StageTranscription), string(transcriber.Config.Vendor), stageResult(ctx, err), time.Since(start))
		if ctxErr := checkCancelled(ctx); ctxErr != nil {
			return o.cancel(ctx, result, ctxErr)
		}
		return o.fail(ctx, result, model.StageTranscription, err)
	}
	metrics.ObserveStage(string(model.StageTranscription), string(transcriber.Config.Vendor), "ok", time.Since(start))
	result.Transcript = transcript

	stages := []optionalStage{
		{
			stage:   model.StageNotes,
			state:   StateGeneratingNotes,
			enabled: req.EnableNotes,
			run: func(ctx context.Context, transcript string) error {
				notes, err := pipeline.GenerateNotes(ctx, transcript, req.Generation, writer)
				if err == nil {
					result.Notes = &notes
				}
				return err
			},
		},
		{
			stage:   model.StageQuiz,
			state:   StateGeneratingQuiz,
			enabled: req.EnableQuiz,
			run: func(ctx context.Context, transcript string) error {
				quiz, err := pipeline.GenerateQuiz(ctx, transcript, pipeline.QuizOptions{
					GenerationOptions: req.Generation,
					NumQuestions:      req.NumQuestions,
					Types:             req.QuizTypes,
				}, writer)
				if err == nil {
					result.Quiz = &quiz
				}
				return err
			},
		},
		{
			stage:   model.StageFlashcards,
			state:   StateGeneratingFlashcards,
			enabled: req.EnableFlashcards,
			run: func(ctx context.Context, transcript string) error {
				cards, err := pipeline.GenerateFlashcards(ctx, transcript, pipeline.FlashcardOptions{
					GenerationOptions: req.Generation,
					NumCards:          req.NumFlashcards,
					Style:             req.FlashcardStyle,
				}, writer)
				if err == nil {
					result.Flashcards = &cards
				}
				return err
			},
		},
	}

	for _, stage := range stages {
		if !stage.enabled {
			continue
		}
		if err := checkCancelled(ctx); err != nil {
			return o.cancel(ctx, result, err)
		}

		step++
		result.enter(stage.state)
		o.report(ctx, result, stage.stage, step, total)

		start := time.Now()
		err := stage.run(logging.ContextWithStage(ctx, string(stage.stage)), result.Transcript.Text)
		metrics.ObserveStage(string(stage.stage), string(writer.Config.Vendor), stageResult(ctx, err), time.Since(start))
		if err != nil {
			if ctxErr := checkCancelled(ctx); ctxErr != nil {
				return o.cancel(ctx, result, ctxErr)
			}
			log.Warnf("stage=%s failed, continuing: %v", stage.stage, err)
			result.recordStageError(stage.stage, err)
		}
	}

	result.enter(StateDone)
	result.Outcome = OutcomeSuccess
	if len(result.StageErrors) > 0 {
		result.Outcome = OutcomePartialSuccess
	}
	metrics.RunsTotal.WithLabelValues(string(result.Outcome)).Inc()
	o.report(ctx, result, "", total, total)
	log.Infof("session=%s outcome=%s stage_errors=%d", result.ID, result.Outcome, len(result.StageErrors))
	return result, nil
}

// fail ends the run. stage is empty when the run failed before any stage started.
func (o *Orchestrator) fail(ctx context.Context, result *SessionResult, stage model.Stage, err error) (*SessionResult, error) {
	log := logging.NewLogger(ctx)
	if stage != "" {
		result.recordStageError(stage, err)
	}
	result.enter(StateFailed)
	result.Outcome = OutcomeFailed
	metrics.RunsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
	log.Errorf("error: %v", err)
	return result, utils.WrapIfNotNil(err)
}

func (o *Orchestrator) cancel(ctx context.Context, result *SessionResult, err error) (*SessionResult, error) {
	log := logging.NewLogger(ctx)
	result.enter(StateFailed)
	result.Outcome = OutcomeCancelled
	metrics.RunsTotal.WithLabelValues(string(OutcomeCancelled)).Inc()
	log.Warnf("session=%s cancelled after state=%s", result.ID, result.History[len(result.History)-2].State)
	return result, utils.WrapIfNotNil(err)
}

func (o *Orchestrator) report(ctx context.Context, result *SessionResult, stage model.Stage, step int, total int) {
	log := logging.NewLogger(ctx)
	log.Infof("session=%s state=%s step=%d/%d", result.ID, result.State, step, total)
	if o.progress == nil {
		return
	}
	o.progress(Progress{
		SessionID:  result.ID,
		State:      result.State,
		Stage:      stage,
		Step:       step,
		TotalSteps: total,
	})
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return model.NewError(model.KindCancelled, "orchestrator.Run", fmt.Sprintf("run stopped: %v", err), err)
	}
	return nil
}

func stageResult(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "ok"
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}
