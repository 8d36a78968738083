package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/coursemind/coursemind/internal/knowledge"
)

func match(content string, similarity float64) knowledge.Match {
	return knowledge.Match{
		Chunk:      knowledge.Chunk{Content: content},
		Similarity: similarity,
	}
}

func TestAssembleContextPreservesOrder(t *testing.T) {
	got := AssembleContext([]knowledge.Match{
		match("most relevant passage", 0.91),
		match("second passage", 0.74),
	}, DefaultContextBudget)

	assert.Contains(t, got, "most relevant passage")
	assert.Contains(t, got, "second passage")
	assert.Less(t,
		strings.Index(got, "most relevant passage"),
		strings.Index(got, "second passage"),
		"higher similarity comes first")
	assert.Contains(t, got, contextSeparator)
}

func TestAssembleContextEmptyYieldsSentinel(t *testing.T) {
	assert.Equal(t, NoContextSentinel, AssembleContext(nil, DefaultContextBudget))
	assert.Equal(t, NoContextSentinel, AssembleContext([]knowledge.Match{}, 0))
}

func TestAssembleContextTruncatesToBudget(t *testing.T) {
	long := strings.Repeat("passage ", 2000)
	got := AssembleContext([]knowledge.Match{match(long, 0.9)}, 100)
	assert.LessOrEqual(t, len(got), 100)
	assert.NotEmpty(t, got)
}

func TestAssembleContextTruncatesOnRuneBoundary(t *testing.T) {
	got := AssembleContext([]knowledge.Match{match(strings.Repeat("日本語テキスト", 100), 0.9)}, 50)
	assert.LessOrEqual(t, len(got), 50)
	assert.True(t, utf8.ValidString(got))
}
