package extract

import (
	"fmt"
	"strings"
)

// QuizQuestion is one validated multiple-choice question.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
}

// quizRecord is the wire shape the model produces. The answer arrives as
// a letter ("A".."D") and is normalized to a zero-based index.
type quizRecord struct {
	Question    string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"len=4,dive,required"`
	Answer      string   `json:"answer" validate:"required"`
	Explanation string   `json:"explanation"`
}

// answerIndex maps an answer letter to its option index. Unrecognized
// letters report failure rather than defaulting to the first option,
// which would fabricate a plausible-looking wrong answer.
func answerIndex(letter string) (int, bool) {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return 0, true
	case "B":
		return 1, true
	case "C":
		return 2, true
	case "D":
		return 3, true
	}
	return 0, false
}

// ParseQuiz decodes raw model output into quiz questions.
//
// Policy: drop-invalid. Records that fail validation or carry an
// unrecognized answer letter are dropped individually; the remaining
// valid questions are still usable as a quiz. The dropped count is
// reported so callers can log it. An output where every record is
// invalid fails with ErrSchemaViolation.
func ParseQuiz(raw string) (questions []QuizQuestion, dropped int, err error) {
	var records []quizRecord
	if err := DecodeJSON(raw, &records); err != nil {
		return nil, 0, fmt.Errorf("parse quiz: %w", err)
	}

	questions = make([]QuizQuestion, 0, len(records))
	for _, rec := range records {
		if err := validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		idx, ok := answerIndex(rec.Answer)
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, QuizQuestion{
			Question:    rec.Question,
			Options:     rec.Options,
			AnswerIndex: idx,
			Explanation: rec.Explanation,
		})
	}

	if len(questions) == 0 && dropped > 0 {
		return nil, dropped, fmt.Errorf("parse quiz: %w: all %d records invalid", ErrSchemaViolation, dropped)
	}
	return questions, dropped, nil
}
