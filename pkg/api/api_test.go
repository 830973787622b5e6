package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/registry"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/storage"
)

type stubRunner struct {
	requests []orchestrator.Request
	err      error
}

func (r *stubRunner) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.SessionResult, error) {
	r.requests = append(r.requests, req)
	id := req.SessionID
	if id == "" {
		id = "session-1"
	}
	if r.err != nil {
		return &orchestrator.SessionResult{
			ID:        id,
			AudioName: req.Audio.Filename,
			State:     orchestrator.StateFailed,
			Outcome:   orchestrator.OutcomeFailed,
		}, r.err
	}
	return &orchestrator.SessionResult{
		ID:         id,
		AudioName:  req.Audio.Filename,
		Transcript: model.SingleSegmentTranscript("Plants use sunlight.", 3),
		Notes: &model.NotesDocument{Sections: []model.Section{
			{Level: 1, Heading: "Photosynthesis", Body: "- Light becomes chemical energy"},
		}},
		Flashcards: &model.FlashcardSet{Cards: []model.Flashcard{
			{Front: "What does photosynthesis convert light into?", Back: "Chemical energy stored in glucose"},
		}},
		State:   orchestrator.StateDone,
		Outcome: orchestrator.OutcomeSuccess,
	}, nil
}

type stubCatalog struct{}

func (stubCatalog) Catalog() []registry.VendorInfo {
	return []registry.VendorInfo{{Name: "groq", DisplayName: "Groq", Configured: true, FreeTier: true}}
}

type APISuite struct {
	suite.Suite
	runner *stubRunner
	store  *SessionStore
	sink   *storage.LocalSink
	router *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *APISuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.runner = &stubRunner{}
	s.store = NewSessionStore()
	s.sink = storage.NewLocalSink(s.T().TempDir())
	s.router = NewRouter(Deps{
		Runner:  s.runner,
		Catalog: stubCatalog{},
		Sink:    s.sink,
		Defaults: orchestrator.Request{
			Provider:              "groq",
			TranscriptionProvider: "groq",
			EnableNotes:           true,
			EnableQuiz:            true,
			EnableFlashcards:      true,
			NumQuestions:          10,
			NumFlashcards:         15,
			FlashcardStyle:        model.FlashcardStyleQA,
			AudioOptions:          model.AudioOptions{Language: "en", MaxBytes: 1024},
		},
		Store:  s.store,
		Logger: logger,
	})
}

func (s *APISuite) upload(method string, path string, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		s.Require().NoError(writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("audio", filename)
		s.Require().NoError(err)
		_, err = part.Write(data)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func (s *APISuite) do(method string, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, httptest.NewRequest(method, path, nil))
	return recorder
}

func (s *APISuite) decodeError(recorder *httptest.ResponseRecorder) APIError {
	var apiErr APIError
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	return apiErr
}

func (s *APISuite) TestHealth() {
	recorder := s.do(http.MethodGet, "/api/v1/health")

	s.Equal(http.StatusOK, recorder.Code)
	s.JSONEq(`{"status":"ok","sessions":0}`, recorder.Body.String())
	s.NotEmpty(recorder.Header().Get("X-Request-Id"))
}

func (s *APISuite) TestProviders() {
	recorder := s.do(http.MethodGet, "/api/v1/providers")

	s.Equal(http.StatusOK, recorder.Code)
	s.Contains(recorder.Body.String(), `"name":"groq"`)
	s.Contains(recorder.Body.String(), `"free_tier":true`)
}

func (s *APISuite) TestSchema() {
	recorder := s.do(http.MethodGet, "/api/v1/schema")

	s.Equal(http.StatusOK, recorder.Code)
	var schema map[string]any
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &schema))
	properties, ok := schema["properties"].(map[string]any)
	s.Require().True(ok)
	s.Contains(properties, "transcript")
	s.Contains(properties, "stage_errors")
}

func (s *APISuite) TestSessionLifecycle() {
	recorder := s.upload(http.MethodPost, "/api/v1/sessions", "bio101.mp3", []byte("audio"), map[string]string{
		"quiz":           "false",
		"num_flashcards": "5",
		"quiz_types":     "tf,sa",
	})
	s.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())

	var created orchestrator.SessionResult
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &created))
	s.Equal("session-1", created.ID)
	s.Equal(orchestrator.OutcomeSuccess, created.Outcome)

	s.Require().Len(s.runner.requests, 1)
	req := s.runner.requests[0]
	s.False(req.EnableQuiz)
	s.True(req.EnableNotes)
	s.Equal(5, req.NumFlashcards)
	s.Equal(10, req.NumQuestions)
	s.Equal([]model.QuestionType{model.QuestionTypeTrueFalse, model.QuestionTypeShortAnswer}, req.QuizTypes)
	s.Equal("bio101.mp3", req.Audio.Filename)
	s.Equal([]byte("audio"), req.Audio.Data)

	recorder = s.do(http.MethodGet, "/api/v1/sessions/session-1")
	s.Equal(http.StatusOK, recorder.Code)

	recorder = s.do(http.MethodGet, "/api/v1/sessions/session-1/export/notes?format=md")
	s.Equal(http.StatusOK, recorder.Code)
	s.Equal(`attachment; filename="bio101_notes.md"`, recorder.Header().Get("Content-Disposition"))
	s.Equal("text/markdown; charset=utf-8", recorder.Header().Get("Content-Type"))
	s.Contains(recorder.Body.String(), "- Light becomes chemical energy")

	recorder = s.do(http.MethodGet, "/api/v1/sessions/session-1/export/quiz")
	s.Equal(http.StatusNotFound, recorder.Code)

	recorder = s.do(http.MethodDelete, "/api/v1/sessions/session-1")
	s.Equal(http.StatusNoContent, recorder.Code)

	recorder = s.do(http.MethodGet, "/api/v1/sessions/session-1")
	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(model.KindNotFound, s.decodeError(recorder).Code)
}

func (s *APISuite) TestReprocessReplacesSession() {
	s.Require().Equal(http.StatusCreated, s.upload(http.MethodPost, "/api/v1/sessions", "a.mp3", []byte("one"), nil).Code)

	recorder := s.upload(http.MethodPut, "/api/v1/sessions/session-1/audio", "b.wav", []byte("two"), nil)

	s.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	s.Require().Len(s.runner.requests, 2)
	s.Equal("session-1", s.runner.requests[1].SessionID)
	result, ok := s.store.Get("session-1")
	s.Require().True(ok)
	s.Equal("b.wav", result.AudioName)
}

func (s *APISuite) TestReprocessUnknownSession() {
	recorder := s.upload(http.MethodPut, "/api/v1/sessions/missing/audio", "b.wav", []byte("two"), nil)

	s.Equal(http.StatusNotFound, recorder.Code)
	s.Empty(s.runner.requests)
}

func (s *APISuite) TestUploadValidation() {
	recorder := s.upload(http.MethodPost, "/api/v1/sessions", "", nil, nil)
	s.Equal(http.StatusBadRequest, recorder.Code)
	s.Equal(model.KindEmptyInput, s.decodeError(recorder).Code)

	recorder = s.upload(http.MethodPost, "/api/v1/sessions", "lecture.txt", []byte("audio"), nil)
	s.Equal(http.StatusUnsupportedMediaType, recorder.Code)

	recorder = s.upload(http.MethodPost, "/api/v1/sessions", "lecture.mp3", bytes.Repeat([]byte("a"), 2048), nil)
	s.Equal(http.StatusRequestEntityTooLarge, recorder.Code)

	recorder = s.upload(http.MethodPost, "/api/v1/sessions", "lecture.mp3", []byte("audio"), map[string]string{"num_questions": "3"})
	s.Equal(http.StatusBadRequest, recorder.Code)
	s.Equal(model.KindInvalidConfig, s.decodeError(recorder).Code)

	s.Empty(s.runner.requests)
}

func (s *APISuite) TestRunFailureMapsRootKind() {
	s.runner.err = model.NewError(
		model.KindGenerationFailed,
		"pipeline.Transcribe",
		"transcription generation failed",
		model.NewError(model.KindRateLimited, "groq", "groq API error (429): slow down", nil),
	)

	recorder := s.upload(http.MethodPost, "/api/v1/sessions", "lecture.mp3", []byte("audio"), nil)

	s.Equal(http.StatusTooManyRequests, recorder.Code)
	apiErr := s.decodeError(recorder)
	s.Equal(model.KindRateLimited, apiErr.Code)
	s.Equal("session-1", apiErr.SessionID)
	s.Contains(apiErr.Message, "slow down")

	result, ok := s.store.Get("session-1")
	s.Require().True(ok)
	s.Equal(orchestrator.StateFailed, result.State)
}

func (s *APISuite) TestSaveExportToSink() {
	s.Require().Equal(http.StatusCreated, s.upload(http.MethodPost, "/api/v1/sessions", "bio101.mp3", []byte("audio"), nil).Code)

	recorder := s.do(http.MethodPost, "/api/v1/sessions/session-1/export/flashcards?format=txt")

	s.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())
	var saved struct {
		Key  string `json:"key"`
		URL  string `json:"url"`
		Sink string `json:"sink"`
	}
	s.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &saved))
	s.Equal("session-1/bio101_flashcards.txt", saved.Key)
	s.Equal("local", saved.Sink)

	data, err := os.ReadFile(filepath.Join(s.sink.Dir(), "session-1", "bio101_flashcards.txt"))
	s.Require().NoError(err)
	s.Contains(string(data), "Front: What does photosynthesis convert light into?")
}

func (s *APISuite) TestSaveExportDiskFailure() {
	s.Require().Equal(http.StatusCreated, s.upload(http.MethodPost, "/api/v1/sessions", "bio101.mp3", []byte("audio"), nil).Code)
	s.Require().NoError(os.WriteFile(filepath.Join(s.sink.Dir(), "session-1"), []byte("file in the way"), 0o600))

	recorder := s.do(http.MethodPost, "/api/v1/sessions/session-1/export/flashcards?format=txt")

	s.Equal(http.StatusInternalServerError, recorder.Code)
	s.Equal(model.KindStorageFailed, s.decodeError(recorder).Code)
}

func (s *APISuite) TestExportRejectsUnknownFormat() {
	s.Require().Equal(http.StatusCreated, s.upload(http.MethodPost, "/api/v1/sessions", "bio101.mp3", []byte("audio"), nil).Code)

	recorder := s.do(http.MethodGet, "/api/v1/sessions/session-1/export/notes?format=html")

	s.Equal(http.StatusBadRequest, recorder.Code)
}

func (s *APISuite) TestUnknownRoute() {
	recorder := s.do(http.MethodGet, "/api/v1/nope")

	s.Equal(http.StatusNotFound, recorder.Code)
	s.Equal(model.KindNotFound, s.decodeError(recorder).Code)
}
