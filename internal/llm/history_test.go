package llm

import (
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessagesRoleMapping(t *testing.T) {
	msgs, err := toMessages([]Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
		{Role: "system", Content: "unknown roles become user"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, ai.RoleUser, msgs[0].Role)
	assert.Equal(t, ai.RoleModel, msgs[1].Role)
	assert.Equal(t, ai.RoleUser, msgs[2].Role)
	assert.Equal(t, "hi there", msgs[1].Content[0].Text)
}

func TestToMessagesWithImages(t *testing.T) {
	msgs, err := toMessages([]Turn{
		{
			Role:    RoleUser,
			Content: "what is on this slide?",
			Images:  []string{"data:image/png;base64,iVBORw0KGgo="},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 2, "media part plus text part")
	assert.True(t, msgs[0].Content[0].IsMedia())
	assert.Equal(t, "what is on this slide?", msgs[0].Content[1].Text)
}

func TestMediaPartRejectsNonDataURI(t *testing.T) {
	_, err := mediaPart("https://example.com/slide.png")
	assert.Error(t, err)

	_, err = mediaPart("data:image/png-no-comma")
	assert.Error(t, err)

	_, err = mediaPart("data:application/pdf;base64,AAAA")
	assert.Error(t, err, "only image media types are accepted")
}

func TestTruncateHistoryKeepsRecentTurns(t *testing.T) {
	long := strings.Repeat("alpha beta gamma delta ", 200)
	turns := []Turn{
		{Role: RoleUser, Content: long},
		{Role: RoleAssistant, Content: long},
		{Role: RoleUser, Content: "short question"},
		{Role: RoleAssistant, Content: "short answer"},
	}

	got := truncateHistory(turns, countTokens("short question")+countTokens("short answer"))
	require.Len(t, got, 2)
	assert.Equal(t, "short question", got[0].Content)
	assert.Equal(t, "short answer", got[1].Content)
}

func TestTruncateHistoryWithinBudgetUnchanged(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	}
	got := truncateHistory(turns, DefaultHistoryTokens)
	assert.Equal(t, turns, got)
}

func TestTruncateHistoryEmpty(t *testing.T) {
	assert.Empty(t, truncateHistory(nil, 100))
}
