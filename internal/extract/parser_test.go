package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRoundTrip(t *testing.T) {
	bare := `[{"question":"What is a goroutine?","answer":"A"},{"question":"What is a channel?","answer":"C"}]`

	wrappers := []struct {
		name string
		raw  string
	}{
		{"bare literal", bare},
		{"code fence", "Here you go:\n```json\n" + bare + "\n```"},
		{"fence without language", "```\n" + bare + "\n```\nLet me know if you need more."},
		{"surrounding prose", "Sure! The questions are: " + bare + " Hope that helps."},
	}

	var want []map[string]any
	require.NoError(t, json.Unmarshal([]byte(bare), &want))

	for _, tt := range wrappers {
		t.Run(tt.name, func(t *testing.T) {
			var got []map[string]any
			require.NoError(t, DecodeJSON(tt.raw, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeJSONObject(t *testing.T) {
	var got map[string]int
	require.NoError(t, DecodeJSON("the range is {\"startPage\": 12, \"endPage\": 30} as requested", &got))
	assert.Equal(t, map[string]int{"startPage": 12, "endPage": 30}, got)
}

func TestDecodeJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no brackets at all", "I could not find any topics in this document."},
		{"opening bracket only", "here is the list: [\"unterminated"},
		{"invalid JSON between brackets", "[{not json}]"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []any
			err := DecodeJSON(tt.raw, &got)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestParseSyllabus(t *testing.T) {
	raw := "```json\n[" +
		`{"week":1,"title":"Introduction","description":"Course overview","startPage":1,"endPage":12},` +
		`{"week":2,"title":"Data Structures","description":"","startPage":13,"endPage":40}` +
		"]\n```"

	topics, err := ParseSyllabus(raw)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "Introduction", topics[0].Title)
	assert.Equal(t, 13, topics[1].StartPage)
}

func TestParseSyllabusAllOrNothing(t *testing.T) {
	// Second topic has an end page before its start page. The whole
	// extraction fails; no partial syllabus escapes.
	raw := `[` +
		`{"week":1,"title":"Valid","startPage":1,"endPage":10},` +
		`{"week":2,"title":"Broken","startPage":50,"endPage":20}` +
		`]`

	topics, err := ParseSyllabus(raw)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.Nil(t, topics)
}

func TestParseSyllabusEmptyArray(t *testing.T) {
	_, err := ParseSyllabus("[]")
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseQuizDropsInvalidRecords(t *testing.T) {
	raw := `[` +
		`{"question":"Q1","options":["a","b","c","d"],"answer":"B","explanation":"e1"},` +
		`{"question":"Q2","options":["a","b"],"answer":"A","explanation":"too few options"},` +
		`{"question":"Q3","options":["a","b","c","d"],"answer":"E","explanation":"bad letter"},` +
		`{"question":"Q4","options":["a","b","c","d"],"answer":"d","explanation":"lowercase ok"}` +
		`]`

	questions, dropped, err := ParseQuiz(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, questions, 2)
	assert.Equal(t, "Q1", questions[0].Question)
	assert.Equal(t, 1, questions[0].AnswerIndex)
	assert.Equal(t, "Q4", questions[1].Question)
	assert.Equal(t, 3, questions[1].AnswerIndex)
}

func TestParseQuizAllInvalid(t *testing.T) {
	raw := `[{"question":"Q1","options":[],"answer":"Z"}]`
	questions, dropped, err := ParseQuiz(raw)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.Equal(t, 1, dropped)
	assert.Nil(t, questions)
}

func TestParseQuizMalformed(t *testing.T) {
	_, _, err := ParseQuiz("Sorry, I cannot generate a quiz from this text.")
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestAnswerIndex(t *testing.T) {
	for letter, want := range map[string]int{"A": 0, "b": 1, " C ": 2, "d": 3} {
		idx, ok := answerIndex(letter)
		assert.True(t, ok, letter)
		assert.Equal(t, want, idx, letter)
	}
	_, ok := answerIndex("E")
	assert.False(t, ok)
	_, ok = answerIndex("")
	assert.False(t, ok)
}

func TestPageRangeValidate(t *testing.T) {
	assert.NoError(t, PageRange{StartPage: 5, EndPage: 20}.Validate())
	assert.ErrorIs(t, PageRange{StartPage: 20, EndPage: 5}.Validate(), ErrSchemaViolation)
	assert.ErrorIs(t, PageRange{StartPage: 0, EndPage: 5}.Validate(), ErrSchemaViolation)
}
