// Package chunker splits extracted document text into overlapping
// fixed-size spans, the unit of embedding and retrieval.
//
// Splitting is deterministic and pure: identical input and parameters
// always produce identical output, so an interrupted ingestion can be
// restarted from scratch without drift.
package chunker

import "fmt"

const (
	// DefaultSize is the span length in characters.
	DefaultSize = 500

	// DefaultOverlap is the number of characters shared between
	// consecutive spans.
	DefaultOverlap = 100

	// CharsPerPage is the heuristic used to estimate which page a span
	// starts on. Page numbers derived from it are approximate and are
	// labeled as estimates everywhere they surface.
	CharsPerPage = 3000
)

// Chunk is a single span of document text.
type Chunk struct {
	// Content is the span text, at most the configured size.
	Content string

	// Index is the zero-based position of the span within the document.
	Index int

	// Start is the character offset of the span within the source text.
	Start int

	// PageEstimate is the approximate 1-based page the span starts on,
	// derived from CharsPerPage. Monotonically non-decreasing in Index.
	PageEstimate int
}

// Splitter produces overlapping spans with a fixed size and overlap.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. Violating 0 <= overlap < size is a configuration
// error, not a runtime input error, so it is reported at construction.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must satisfy 0 <= overlap < size (%d)", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// NewDefault creates a Splitter with the default size and overlap.
func NewDefault() *Splitter {
	s, err := New(DefaultSize, DefaultOverlap)
	if err != nil {
		panic(err) // defaults are always valid
	}
	return s
}

// Split walks the text in a sliding window advancing by size-overlap.
// Every span has at most size characters; the final span may be shorter.
// Character counts are in runes, not bytes, so multi-byte text chunks the
// same way regardless of encoding width.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	stride := s.size - s.overlap

	var chunks []Chunk
	for index, start := 0, 0; start < len(runes); index, start = index+1, start+stride {
		end := min(start+s.size, len(runes))
		chunks = append(chunks, Chunk{
			Content:      string(runes[start:end]),
			Index:        index,
			Start:        start,
			PageEstimate: start/CharsPerPage + 1,
		})
		// The window reached the end of the text; a further span would
		// only repeat characters already covered.
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured span length.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap length.
func (s *Splitter) Overlap() int { return s.overlap }
