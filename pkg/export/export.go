package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/metrics"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

var Formats = []Format{FormatText, FormatMarkdown, FormatPDF, FormatDOCX}

func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
	switch normalized {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", model.NewError(model.KindInvalidConfig, "export.ParseFormat", fmt.Sprintf("unknown export format %q", value), nil)
}

// Content names what is exported from a session.
type Content string

const (
	ContentTranscript Content = "transcript"
	ContentNotes      Content = "notes"
	ContentQuiz       Content = "quiz"
	ContentFlashcards Content = "flashcards"
)

func ParseContent(value string) (Content, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "transcript", "transcription":
		return ContentTranscript, nil
	case "notes":
		return ContentNotes, nil
	case "quiz":
		return ContentQuiz, nil
	case "flashcards", "cards":
		return ContentFlashcards, nil
	}
	return "", model.NewError(model.KindInvalidConfig, "export.ParseContent", fmt.Sprintf("unknown export content %q", value), nil)
}

func (c Content) stage() model.Stage {
	switch c {
	case ContentTranscript:
		return model.StageTranscription
	case ContentNotes:
		return model.StageNotes
	case ContentQuiz:
		return model.StageQuiz
	case ContentFlashcards:
		return model.StageFlashcards
	}
	return ""
}

func ContentType(format Format) string {
	switch format {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// FileName derives the download name from the uploaded audio, e.g. "bio101_notes.pdf".
func FileName(audioName string, content Content, format Format) string {
	base := strings.TrimSuffix(filepath.Base(audioName), filepath.Ext(audioName))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." || strings.Trim(base, "_") == "" {
		base = "lecture"
	}
	return fmt.Sprintf("%s_%s.%s", base, content, format)
}

// Render produces the export bytes for one piece of session content.
func Render(format Format, content Content, result *orchestrator.SessionResult) ([]byte, error) {
	const op = "export.Render"
	if result == nil || !result.Has(content.stage()) {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindNotFound, op, fmt.Sprintf("session has no %s", content), nil))
	}

	doc, err := buildDocument(content, result)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var out []byte
	switch format {
	case FormatText:
		out = renderText(doc)
	case FormatMarkdown:
		out = renderMarkdown(doc)
	case FormatPDF:
		out, err = renderPDF(doc)
	case FormatDOCX:
		out, err = renderDOCX(doc)
	default:
		err = model.NewError(model.KindInvalidConfig, op, fmt.Sprintf("unknown export format %q", format), nil)
	}
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	metrics.ExportsTotal.WithLabelValues(string(content), string(format)).Inc()
	return out, nil
}
