package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/coursemind/coursemind/internal/knowledge"
)

const (
	// NoContextSentinel tells the model explicitly that retrieval found
	// nothing, so it falls back to general knowledge instead of
	// hallucinating grounding from an empty string.
	NoContextSentinel = "No relevant passage was found in the course material."

	// contextSeparator joins retrieved passages in the prompt.
	contextSeparator = "\n\n---\n\n"

	// DefaultContextBudget caps assembled context length in characters.
	DefaultContextBudget = 6000
)

// AssembleContext joins retrieved passages into a grounded prompt
// fragment, preserving descending-similarity order, and truncates the
// result to budget characters. An empty match list yields the sentinel.
func AssembleContext(matches []knowledge.Match, budget int) string {
	if len(matches) == 0 {
		return NoContextSentinel
	}
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Chunk.Content)
	}
	assembled := strings.Join(parts, contextSeparator)
	if len(assembled) <= budget {
		return assembled
	}

	// Cut on a rune boundary so truncation never splits a character.
	cut := budget
	for cut > 0 && !utf8.RuneStart(assembled[cut]) {
		cut--
	}
	return assembled[:cut]
}
