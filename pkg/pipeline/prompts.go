package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
)

const notesSystemPrompt = `You are an expert note-taker for students. Your task is to transform lecture transcriptions into well-structured, comprehensive study notes.

Follow these guidelines:
1. Create a clear hierarchy with main topics and subtopics
2. Use markdown formatting (headers, bullets, bold, italic)
3. Identify and highlight key concepts, definitions, and terminology
4. Organize information logically by theme or chronology
5. Include important examples, case studies, or demonstrations mentioned
6. Note any formulas, equations, or technical details
7. Summarize complex explanations in clear, concise language
8. Preserve important numbers, dates, names, and references
9. Use bullet points for lists and related items
10. Add section summaries for long topics

Format:
# [Main Topic/Lecture Title]

## Overview
[Brief 2-3 sentence summary of the lecture]

## Key Concepts
- [Important terms and definitions]

## Main Topics

### [Topic 1]
[Detailed notes with sub-points]

### [Topic 2]
[Detailed notes with sub-points]

## Important Points to Remember
- [Critical takeaways]

## Study Questions
- [2-3 questions for review]

Make the notes clear, comprehensive, and easy to study from.`

// quizWeights is the default mix, renormalized over the requested types.
var quizWeights = map[model.QuestionType]int{
	model.QuestionTypeMultipleChoice: 60,
	model.QuestionTypeTrueFalse:      20,
	model.QuestionTypeShortAnswer:    20,
}

var questionTypeLabels = map[model.QuestionType]string{
	model.QuestionTypeMultipleChoice: "Multiple Choice",
	model.QuestionTypeTrueFalse:      "True/False",
	model.QuestionTypeShortAnswer:    "Short Answer",
}

var questionTypeExamples = map[model.QuestionType]string{
	model.QuestionTypeMultipleChoice: `Q%d: [multiple-choice] [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]
Correct Answer: [Letter]
Explanation: [Why this is correct]`,
	model.QuestionTypeTrueFalse: `Q%d: [true-false] [Statement]
Answer: [True/False]
Explanation: [Brief explanation]`,
	model.QuestionTypeShortAnswer: `Q%d: [short-answer] [Question]
Model Answer: [Expected answer with key points]`,
}

func notesUserPrompt(transcript string) string {
	return "Please create structured notes from this lecture:\n\n" + transcript
}

type questionAllocation struct {
	Type  model.QuestionType
	Count int
}

// allocateQuestions splits n across types by quizWeights using largest remainders.
// Ties go to the type listed first.
func allocateQuestions(n int, types []model.QuestionType) []questionAllocation {
	types = normalizeQuestionTypes(types)
	totalWeight := 0
	for _, typ := range types {
		totalWeight += quizWeights[typ]
	}
	if n <= 0 || totalWeight == 0 {
		return nil
	}

	type share struct {
		index     int
		remainder int
	}
	allocations := make([]questionAllocation, len(types))
	shares := make([]share, len(types))
	assigned := 0
	for i, typ := range types {
		exact := n * quizWeights[typ]
		allocations[i] = questionAllocation{Type: typ, Count: exact / totalWeight}
		shares[i] = share{index: i, remainder: exact % totalWeight}
		assigned += allocations[i].Count
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].remainder > shares[b].remainder
	})
	for i := 0; assigned < n; i = (i + 1) % len(shares) {
		allocations[shares[i].index].Count++
		assigned++
	}
	return allocations
}

// normalizeQuestionTypes dedupes and orders types canonically; empty means all.
func normalizeQuestionTypes(types []model.QuestionType) []model.QuestionType {
	if len(types) == 0 {
		return append([]model.QuestionType(nil), model.AllQuestionTypes...)
	}
	wanted := make(map[model.QuestionType]bool, len(types))
	for _, typ := range types {
		wanted[typ] = true
	}
	out := make([]model.QuestionType, 0, len(wanted))
	for _, typ := range model.AllQuestionTypes {
		if wanted[typ] {
			out = append(out, typ)
		}
	}
	return out
}

func quizSystemPrompt(n int, types []model.QuestionType) string {
	allocations := allocateQuestions(n, types)

	var b strings.Builder
	b.WriteString("You are an expert educator creating quiz questions for students.\n")
	fmt.Fprintf(&b, "Create exactly %d questions from the lecture content with this mix:\n", n)
	for _, allocation := range allocations {
		if allocation.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d\n", questionTypeLabels[allocation.Type], allocation.Count)
	}
	b.WriteString(`
Guidelines:
1. Cover all major topics from the lecture
2. Mix difficulty levels (easy, medium, hard)
3. Test both knowledge recall and understanding
4. Ensure questions are clear and unambiguous
5. Provide correct answers and brief explanations
6. Make distractors (wrong answers) plausible

Write every question in exactly this format, with a blank line between questions and no other text:

`)
	number := 1
	for _, allocation := range allocations {
		if allocation.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, questionTypeExamples[allocation.Type], number)
		b.WriteString("\n\n")
		number++
	}
	return strings.TrimRight(b.String(), "\n")
}

func quizUserPrompt(transcript string) string {
	return "Create a quiz from this lecture:\n\n" + transcript
}

var flashcardStyleInstructions = map[model.FlashcardStyle]string{
	model.FlashcardStyleTerm:    "Create %d flashcards for important terms and definitions from the lecture.\nFront: the term or concept. Back: a clear definition or explanation.\nFocus on key vocabulary, concepts, and terminology.",
	model.FlashcardStyleQA:      "Create %d question/answer flashcards from the lecture content.\nFront: a question. Back: a concise answer.\nCreate questions that test understanding of key concepts.",
	model.FlashcardStyleConcept: "Create %d flashcards explaining key concepts from the lecture.\nFront: the concept name. Back: an explanation with an example if relevant.\nFocus on the most important concepts that need understanding.",
	model.FlashcardStyleMixed:   "Create %d flashcards from the lecture content. Include a mix of:\n- Term definitions (40%%)\n- Question/answer pairs (30%%)\n- Concept explanations (30%%)",
}

func flashcardSystemPrompt(n int, style model.FlashcardStyle) string {
	instruction, ok := flashcardStyleInstructions[style]
	if !ok {
		instruction = flashcardStyleInstructions[model.FlashcardStyleQA]
	}

	var b strings.Builder
	b.WriteString("You are an expert at creating effective study flashcards for students.\n")
	fmt.Fprintf(&b, instruction, n)
	b.WriteString(`

Guidelines:
1. Front side: keep it concise (one term, question, or concept)
2. Back side: provide a clear, complete answer (2-4 sentences max)
3. Cover all major topics from the lecture
4. Prioritize the most important and testable information
5. Make cards atomic (one idea per card)

Write every card in exactly this format, with a blank line between cards and no other text:

FRONT: [Term/Question/Concept]
BACK: [Definition/Answer/Explanation]`)
	return b.String()
}

func flashcardUserPrompt(transcript string) string {
	return "Create flashcards from this lecture:\n\n" + transcript
}
