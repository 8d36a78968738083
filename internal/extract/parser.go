// Package extract coerces free-form model output into strictly typed
// records. Models wrap JSON in prose and code fences; the parser here
// slices out the embedded value and every task applies its own
// validation policy on top.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedOutput indicates the model response contained no
	// parsable JSON value. Recoverable and reportable, never a crash.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrSchemaViolation indicates parsed records failed validation under
	// a task whose policy rejects partial data.
	ErrSchemaViolation = errors.New("output violates target schema")
)

// DecodeJSON locates the first JSON array or object embedded in raw text
// and unmarshals it into v. Surrounding prose and code-fence markup are
// ignored: the slice runs from the first `[` or `{` to the last matching
// closing bracket.
func DecodeJSON(raw string, v any) error {
	open := strings.IndexAny(raw, "[{")
	if open < 0 {
		return fmt.Errorf("%w: no JSON value found", ErrMalformedOutput)
	}

	var closer string
	if raw[open] == '[' {
		closer = "]"
	} else {
		closer = "}"
	}
	end := strings.LastIndex(raw, closer)
	if end < open {
		return fmt.Errorf("%w: unterminated JSON value", ErrMalformedOutput)
	}

	if err := json.Unmarshal([]byte(raw[open:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
