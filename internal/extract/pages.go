package extract

import "fmt"

// PageRange locates a topic inside a document's table of contents. Page
// numbers are the model's reading of the printed contents, so they are
// estimates of the physical pages.
type PageRange struct {
	StartPage int `json:"startPage" jsonschema_description:"First page of the topic" validate:"min=1"`
	EndPage   int `json:"endPage" jsonschema_description:"Last page of the topic, inclusive" validate:"min=1"`
}

// Validate checks a model-produced page range. Constrained generation
// guarantees the shape but not the semantics.
func (r PageRange) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if r.EndPage < r.StartPage {
		return fmt.Errorf("%w: end page %d before start page %d", ErrSchemaViolation, r.EndPage, r.StartPage)
	}
	return nil
}
