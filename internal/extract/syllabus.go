package extract

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared across tasks. validator.Validate caches struct
// metadata internally and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// SyllabusTopic is one entry of an extracted course syllabus. Page
// numbers refer to the source document and are estimates supplied by
// the model, not verified citations.
type SyllabusTopic struct {
	Week        int    `json:"week" validate:"min=1"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StartPage   int    `json:"startPage" validate:"min=1"`
	EndPage     int    `json:"endPage" validate:"gtefield=StartPage"`
}

// ParseSyllabus decodes raw model output into syllabus topics.
//
// Policy: all-or-nothing. A single invalid topic fails the whole
// extraction with ErrSchemaViolation, because a partially fabricated
// syllabus silently corrupts downstream course records while an explicit
// failure can be retried.
func ParseSyllabus(raw string) ([]SyllabusTopic, error) {
	var topics []SyllabusTopic
	if err := DecodeJSON(raw, &topics); err != nil {
		return nil, fmt.Errorf("parse syllabus: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("parse syllabus: %w: empty topic list", ErrSchemaViolation)
	}
	for i, topic := range topics {
		if err := validate.Struct(topic); err != nil {
			return nil, fmt.Errorf("parse syllabus: %w: topic %d: %v", ErrSchemaViolation, i, err)
		}
	}
	return topics, nil
}
