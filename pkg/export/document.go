package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockBullet
)

type block struct {
	kind  blockKind
	level int
	text  string
}

// document is the format-neutral layout every renderer walks.
type document struct {
	title  string
	blocks []block
}

func (d *document) heading(level int, text string) {
	d.blocks = append(d.blocks, block{kind: blockHeading, level: level, text: text})
}

func (d *document) paragraph(text string) {
	d.blocks = append(d.blocks, block{kind: blockParagraph, text: text})
}

func (d *document) bullet(text string) {
	d.blocks = append(d.blocks, block{kind: blockBullet, text: text})
}

func buildDocument(content Content, result *orchestrator.SessionResult) (document, error) {
	switch content {
	case ContentTranscript:
		return transcriptDocument(result.Transcript), nil
	case ContentNotes:
		return notesDocument(*result.Notes), nil
	case ContentQuiz:
		return quizDocument(*result.Quiz), nil
	case ContentFlashcards:
		return flashcardDocument(*result.Flashcards), nil
	}
	return document{}, model.NewError(model.KindInvalidConfig, "export.buildDocument", fmt.Sprintf("unknown export content %q", content), nil)
}

func transcriptDocument(transcript model.TranscriptResult) document {
	doc := document{title: "Transcript"}
	if len(transcript.Segments) <= 1 {
		doc.paragraph(transcript.Text)
		return doc
	}
	for _, segment := range transcript.Segments {
		doc.paragraph(fmt.Sprintf("[%s - %s] %s", timestamp(segment.Start), timestamp(segment.End), segment.Text))
	}
	return doc
}

func notesDocument(notes model.NotesDocument) document {
	doc := document{title: notes.Title()}
	if doc.title == "" {
		doc.title = "Lecture Notes"
	}

	for i, section := range notes.Sections {
		// the title is already the document heading
		if !(i == 0 && section.Level == 1 && section.Heading == doc.title) && section.Heading != "" {
			doc.heading(section.Level, section.Heading)
		}
		for _, line := range strings.Split(section.Body, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
			case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
				doc.bullet(plain(trimmed[2:]))
			default:
				doc.paragraph(plain(trimmed))
			}
		}
	}
	return doc
}

var questionTypeNames = map[model.QuestionType]string{
	model.QuestionTypeMultipleChoice: "Multiple Choice",
	model.QuestionTypeTrueFalse:      "True/False",
	model.QuestionTypeShortAnswer:    "Short Answer",
}

func quizDocument(quiz model.Quiz) document {
	doc := document{title: "Quiz"}
	for i, item := range quiz.Items {
		doc.heading(2, fmt.Sprintf("Question %d (%s)", i+1, questionTypeNames[item.Type]))
		doc.paragraph(item.Question)
		for j, option := range item.Options {
			doc.bullet(fmt.Sprintf("%c) %s", 'A'+j, option))
		}
		if item.CorrectIndex >= 0 && item.Type == model.QuestionTypeMultipleChoice {
			doc.paragraph(fmt.Sprintf("Answer: %c) %s", 'A'+item.CorrectIndex, item.Answer))
		} else {
			doc.paragraph("Answer: " + item.Answer)
		}
		if item.Explanation != "" {
			doc.paragraph("Explanation: " + item.Explanation)
		}
	}
	return doc
}

func flashcardDocument(set model.FlashcardSet) document {
	doc := document{title: "Flashcards"}
	for i, card := range set.Cards {
		doc.heading(2, fmt.Sprintf("Card %d", i+1))
		doc.paragraph("Front: " + card.Front)
		doc.paragraph("Back: " + card.Back)
	}
	return doc
}

func timestamp(seconds float64) string {
	total := int(math.Floor(seconds))
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// plain drops inline markdown emphasis for formats that have no markup.
func plain(text string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
}
