package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coursemind/coursemind/internal/llm"
	"github.com/coursemind/coursemind/internal/log"
)

// Input guard: document text beyond this is truncated before prompting
// so a single extraction cannot blow the model's context window.
const maxInputChars = 60000

// DefaultQuizSize is the number of questions requested when the caller
// does not specify one.
const DefaultQuizSize = 10

const syllabusSystem = `You extract course syllabi from raw document text.
Respond with a JSON array only. Each element has the fields
"week" (integer, starting at 1), "title", "description",
"startPage" and "endPage" (integers, inclusive page range).
Do not invent topics that are not present in the text.`

const quizSystem = `You write multiple-choice quizzes from course material.
Respond with a JSON array only. Each element has the fields
"question", "options" (exactly 4 strings), "answer" (a single letter
A, B, C or D naming the correct option) and "explanation".
Ground every question in the supplied text.`

const pagesSystem = `You read a document's table of contents and locate
the page range covering a requested topic.`

// Extractor drives the structured-extraction tasks: prompt the model,
// parse its output and validate the records under each task's policy.
// It is stateless; every call receives its full input.
type Extractor struct {
	client *llm.Client
	logger log.Logger
}

// NewExtractor builds an extractor on top of the generation client.
func NewExtractor(client *llm.Client, logger log.Logger) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("generation client is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Extractor{client: client, logger: logger}, nil
}

// Syllabus extracts the course syllabus from raw document text. Failure
// modes surface as llm.ErrQuotaExceeded, llm.ErrUnavailable,
// ErrMalformedOutput or ErrSchemaViolation; there is no partial result.
func (e *Extractor) Syllabus(ctx context.Context, rawText string) ([]SyllabusTopic, error) {
	raw, err := e.client.GenerateText(ctx, syllabusSystem, clip(rawText))
	if err != nil {
		return nil, fmt.Errorf("syllabus extraction: %w", err)
	}
	topics, err := ParseSyllabus(raw)
	if err != nil {
		e.logger.Error("syllabus extraction rejected",
			"error", err,
			"output_length", len(raw),
		)
		return nil, err
	}
	e.logger.Info("syllabus extracted", "topics", len(topics))
	return topics, nil
}

// Quiz generates count multiple-choice questions from raw document text.
// Invalid records are dropped rather than failing the task; the dropped
// count is logged and returned.
func (e *Extractor) Quiz(ctx context.Context, rawText string, count int) ([]QuizQuestion, int, error) {
	if count <= 0 {
		count = DefaultQuizSize
	}
	prompt := fmt.Sprintf("Write %d questions from the following material:\n\n%s", count, clip(rawText))

	raw, err := e.client.GenerateText(ctx, quizSystem, prompt)
	if err != nil {
		return nil, 0, fmt.Errorf("quiz generation: %w", err)
	}
	questions, dropped, err := ParseQuiz(raw)
	if err != nil {
		e.logger.Error("quiz generation rejected",
			"error", err,
			"output_length", len(raw),
		)
		return nil, dropped, err
	}
	if dropped > 0 {
		e.logger.Warn("quiz records dropped", "dropped", dropped, "kept", len(questions))
	}
	return questions, dropped, nil
}

// Pages locates the page range for a topic in the document's table of
// contents. Uses schema-constrained generation, so parsing cannot fail
// on shape; the range is still validated for semantic sanity.
func (e *Extractor) Pages(ctx context.Context, tocText, topic string) (*PageRange, error) {
	prompt := fmt.Sprintf("Topic: %s\n\nTable of contents:\n%s", topic, clip(tocText))

	pages, err := llm.GenerateStructured[PageRange](ctx, e.client, pagesSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("page lookup: %w", err)
	}
	if err := pages.Validate(); err != nil {
		e.logger.Error("page lookup rejected", "error", err, "topic", topic)
		return nil, fmt.Errorf("page lookup: %w", err)
	}
	return pages, nil
}

func clip(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	clipped := text[:maxInputChars]
	if idx := strings.LastIndexByte(clipped, '\n'); idx > maxInputChars/2 {
		clipped = clipped[:idx]
	}
	return clipped
}
