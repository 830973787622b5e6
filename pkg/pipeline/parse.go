package pipeline

import (
	"regexp"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

// ParseResult carries the well-formed items and how many candidates were discarded.
type ParseResult[T any] struct {
	Items   []T
	Dropped int
}

var (
	headingPattern     = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)(?:\s+#+)?\s*$`)
	fencePattern       = regexp.MustCompile("^\\s*(```|~~~)")
	separatorPattern   = regexp.MustCompile(`^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	questionPattern    = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+|\d+[.)]\s+)?(?:\*\*|__)?\s*(?:question|q)\s*\d*\s*(?:\*\*|__)?\s*[:.)]\s*(?:\*\*|__)?\s*(.*)$`)
	typeTagPattern     = regexp.MustCompile(`(?i)\[\s*(multiple[- ]choice|true[-/ ]false|true or false|short[- ]answer|mcq?|tf|sa)\s*\]`)
	optionPattern      = regexp.MustCompile(`^\s*(?:[-*+]\s+)?(?:\*\*)?\(?([A-Fa-f])(?:\)|\.)(?:\*\*)?\s+(.+)$`)
	answerPattern      = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?(?:\*\*|__)?\s*(correct answer|model answer|answer)\s*(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	explanationPattern = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?(?:\*\*|__)?\s*explanation\s*(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	answerLetter       = regexp.MustCompile(`^\(?([A-Fa-f])\)?(?:[).:]|\s|$)`)
	frontPattern       = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+|\d+[.)]\s+)?(?:\*\*|__)?\s*(?:front|q|question)\s*(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	backPattern        = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+|\d+[.)]\s+)?(?:\*\*|__)?\s*(?:back|a|answer)\s*(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	cardHeaderPattern  = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*)?\s*card\s*#?\s*\d+\s*(?:\*\*)?\s*:?\s*$`)
)

// ParseNotes splits markdown into sections at ATX headings.
func ParseNotes(text string) ParseResult[model.Section] {
	lines := splitLines(unwrapFence(text))
	sections := make([]model.Section, 0)
	current := model.Section{}
	body := make([]string, 0)
	inFence := false

	flush := func() {
		current.Body = joinBody(body)
		if current.Heading != "" || current.Body != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range lines {
		if fencePattern.MatchString(line) {
			inFence = !inFence
			body = append(body, line)
			continue
		}
		if !inFence {
			if match := headingPattern.FindStringSubmatch(line); match != nil && strings.TrimSpace(match[2]) != "" {
				flush()
				current = model.Section{Level: len(match[1]), Heading: stripEmphasis(match[2])}
				continue
			}
		}
		body = append(body, line)
	}
	flush()

	return ParseResult[model.Section]{Items: sections}
}

type quizDraft struct {
	typ         model.QuestionType
	question    string
	options     []string
	answer      string
	hasAnswer   bool
	explanation string
}

// ParseQuiz reads Q:/A)/Answer: blocks. Section headings such as "True/False Questions"
// act as a type hint for the questions under them; an "Answer Key" heading ends parsing.
func ParseQuiz(text string) ParseResult[model.QuizItem] {
	result := ParseResult[model.QuizItem]{Items: make([]model.QuizItem, 0)}
	var draft *quizDraft
	sectionHint := model.QuestionType("")
	field := ""

	finish := func() {
		if draft == nil {
			return
		}
		item, ok := draft.build(sectionHint)
		if ok {
			result.Items = append(result.Items, item)
		} else {
			result.Dropped++
		}
		draft = nil
		field = ""
	}

	for _, line := range splitLines(unwrapFence(text)) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			field = ""
		case separatorPattern.MatchString(line):
			field = ""
		case headingPattern.MatchString(line) && !questionPattern.MatchString(strings.TrimLeft(trimmed, "# ")):
			heading := strings.ToLower(headingPattern.FindStringSubmatch(line)[2])
			if strings.Contains(heading, "answer key") {
				finish()
				return result
			}
			finish()
			sectionHint = questionTypeHint(heading)
		case questionPattern.MatchString(strings.TrimLeft(trimmed, "# ")):
			finish()
			question := questionPattern.FindStringSubmatch(strings.TrimLeft(trimmed, "# "))[1]
			draft = &quizDraft{}
			if tag := typeTagPattern.FindStringSubmatch(question); tag != nil {
				draft.typ, _ = model.ParseQuestionType(strings.ReplaceAll(strings.ReplaceAll(tag[1], "/", "-"), " or ", "-"))
				question = typeTagPattern.ReplaceAllString(question, "")
			}
			draft.question = stripEmphasis(question)
			field = "question"
		case draft == nil:
			// prose before the first question
		case answerPattern.MatchString(line):
			draft.answer = stripEmphasis(answerPattern.FindStringSubmatch(line)[2])
			draft.hasAnswer = true
			field = "answer"
		case explanationPattern.MatchString(line):
			draft.explanation = stripEmphasis(explanationPattern.FindStringSubmatch(line)[1])
			field = "explanation"
		case optionPattern.MatchString(line) && !draft.hasAnswer:
			match := optionPattern.FindStringSubmatch(line)
			letterIndex := optionLetterIndex(match[1])
			if letterIndex != len(draft.options) {
				// out-of-sequence letters mean the block is not an option list we can trust
				draft.options = append(draft.options, "")
			}
			draft.options = append(draft.options, stripEmphasis(match[2]))
			field = "option"
		default:
			draft.appendContinuation(field, stripEmphasis(trimmed))
		}
	}
	finish()
	return result
}

func (d *quizDraft) appendContinuation(field string, text string) {
	if text == "" {
		return
	}
	switch field {
	case "question":
		if len(d.options) == 0 {
			d.question = joinNonEmpty(d.question, text)
		}
	case "answer":
		d.answer = joinNonEmpty(d.answer, text)
	case "explanation":
		d.explanation = joinNonEmpty(d.explanation, text)
	}
}

func (d *quizDraft) build(sectionHint model.QuestionType) (model.QuizItem, bool) {
	if d.question == "" || !d.hasAnswer || strings.TrimSpace(d.answer) == "" {
		return model.QuizItem{}, false
	}
	for _, option := range d.options {
		if option == "" {
			return model.QuizItem{}, false
		}
	}

	typ := d.typ
	if typ == "" {
		typ = sectionHint
	}
	if typ == "" {
		typ = inferQuestionType(d.options, d.answer)
	}

	item := model.QuizItem{
		Type:         typ,
		Question:     d.question,
		Options:      []string{},
		CorrectIndex: -1,
		Explanation:  d.explanation,
	}

	switch typ {
	case model.QuestionTypeMultipleChoice:
		if len(d.options) < 2 {
			return model.QuizItem{}, false
		}
		index, ok := resolveOptionIndex(d.answer, d.options)
		if !ok {
			return model.QuizItem{}, false
		}
		item.Options = append(item.Options, d.options...)
		item.CorrectIndex = index
		item.Answer = d.options[index]
	case model.QuestionTypeTrueFalse:
		answer := d.answer
		if len(d.options) > 0 {
			if index, ok := resolveOptionIndex(d.answer, d.options); ok {
				answer = d.options[index]
			}
		}
		value, ok := parseTrueFalse(answer)
		if !ok {
			return model.QuizItem{}, false
		}
		item.Options = []string{"True", "False"}
		item.CorrectIndex = 1
		item.Answer = "False"
		if value {
			item.CorrectIndex = 0
			item.Answer = "True"
		}
	case model.QuestionTypeShortAnswer:
		item.Answer = d.answer
	default:
		return model.QuizItem{}, false
	}

	return item, item.Valid()
}

func inferQuestionType(options []string, answer string) model.QuestionType {
	if len(options) == 2 {
		_, firstIsBool := parseTrueFalse(options[0])
		_, secondIsBool := parseTrueFalse(options[1])
		if firstIsBool && secondIsBool {
			return model.QuestionTypeTrueFalse
		}
	}
	if len(options) > 0 {
		return model.QuestionTypeMultipleChoice
	}
	if _, ok := parseTrueFalse(answer); ok {
		return model.QuestionTypeTrueFalse
	}
	return model.QuestionTypeShortAnswer
}

func questionTypeHint(heading string) model.QuestionType {
	switch {
	case strings.Contains(heading, "multiple choice") || strings.Contains(heading, "multiple-choice"):
		return model.QuestionTypeMultipleChoice
	case strings.Contains(heading, "true/false") || strings.Contains(heading, "true-false") || strings.Contains(heading, "true or false"):
		return model.QuestionTypeTrueFalse
	case strings.Contains(heading, "short answer") || strings.Contains(heading, "short-answer"):
		return model.QuestionTypeShortAnswer
	}
	return ""
}

// resolveOptionIndex matches the answer against option text first, so "a lipid bilayer" is not
// read as letter a.
func resolveOptionIndex(answer string, options []string) (int, bool) {
	answer = strings.TrimSpace(answer)
	for index, option := range options {
		if strings.EqualFold(strings.TrimRight(answer, "."), strings.TrimRight(option, ".")) {
			return index, true
		}
	}
	if match := answerLetter.FindStringSubmatch(answer); match != nil {
		index := optionLetterIndex(match[1])
		return index, index < len(options)
	}
	return -1, false
}

func optionLetterIndex(letter string) int {
	return int(strings.ToUpper(letter)[0] - 'A')
}

func parseTrueFalse(value string) (bool, bool) {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(value), ".!*_ "))
	switch {
	case normalized == "true" || normalized == "t" || strings.HasPrefix(normalized, "true "):
		return true, true
	case normalized == "false" || normalized == "f" || strings.HasPrefix(normalized, "false "):
		return false, true
	}
	return false, false
}

// ParseFlashcards pairs FRONT:/BACK: lines. "Card N" headers and other headings close the
// pending card.
func ParseFlashcards(text string) ParseResult[model.Flashcard] {
	result := ParseResult[model.Flashcard]{Items: make([]model.Flashcard, 0)}
	front, back := "", ""
	hasFront, hasBack := false, false
	field := ""

	finish := func() {
		if hasFront || hasBack {
			if hasFront && hasBack && front != "" && back != "" {
				result.Items = append(result.Items, model.Flashcard{Front: front, Back: back})
			} else {
				result.Dropped++
			}
		}
		front, back = "", ""
		hasFront, hasBack = false, false
		field = ""
	}

	for _, line := range splitLines(unwrapFence(text)) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || separatorPattern.MatchString(line):
			field = ""
		case cardHeaderPattern.MatchString(line):
			finish()
		case frontPattern.MatchString(line):
			finish()
			front = stripEmphasis(frontPattern.FindStringSubmatch(line)[1])
			hasFront = true
			field = "front"
		case backPattern.MatchString(line):
			if hasBack {
				finish()
			}
			back = stripEmphasis(backPattern.FindStringSubmatch(line)[1])
			hasBack = true
			field = "back"
		case headingPattern.MatchString(line):
			finish()
		case field == "front":
			front = joinNonEmpty(front, stripEmphasis(trimmed))
		case field == "back":
			back = joinNonEmpty(back, stripEmphasis(trimmed))
		}
	}
	finish()
	return result
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// unwrapFence removes a single fenced block that wraps the whole response.
func unwrapFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}
	inner := strings.TrimSuffix(trimmed, "```")
	newline := strings.Index(inner, "\n")
	if newline < 0 {
		return text
	}
	return inner[newline+1:]
}

func joinBody(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	out := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Join(out, "\n")
}

func stripEmphasis(value string) string {
	value = strings.TrimSpace(value)
	for _, marker := range []string{"**", "__"} {
		value = strings.TrimSpace(strings.TrimPrefix(value, marker))
		value = strings.TrimSpace(strings.TrimSuffix(value, marker))
	}
	return value
}

func joinNonEmpty(existing string, next string) string {
	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	return existing + " " + next
}
