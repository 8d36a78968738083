package llm

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
	"github.com/pkoukk/tiktoken-go"
)

// Conversation roles accepted over the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultHistoryTokens is the token budget for conversation history.
// Anything beyond it is trimmed oldest-first before the call.
const DefaultHistoryTokens = 8000

// Turn is a single prior exchange in a conversation. Images are base64
// data URIs attached to the turn's content.
type Turn struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// countTokens counts tokens using the cl100k_base encoding. When the
// encoding cannot be loaded (offline environments) it falls back to a
// rune-based estimate that is conservative for both English and CJK text.
func countTokens(text string) int {
	encodingOnce.Do(func() {
		encoding, _ = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	})
	if encoding == nil {
		return utf8.RuneCountInString(text) / 2
	}
	return len(encoding.Encode(text, nil, nil))
}

// truncateHistory drops the oldest turns until the remainder fits the
// token budget. The most recent turns always win since they carry the
// active thread of the conversation.
func truncateHistory(turns []Turn, budget int) []Turn {
	if len(turns) == 0 || budget <= 0 {
		return turns
	}

	total := 0
	for _, t := range turns {
		total += countTokens(t.Content)
	}
	if total <= budget {
		return turns
	}

	kept := make([]Turn, 0, len(turns))
	remaining := budget
	for i := len(turns) - 1; i >= 0; i-- {
		cost := countTokens(turns[i].Content)
		if remaining < cost {
			break
		}
		kept = append(kept, turns[i])
		remaining -= cost
	}
	slices.Reverse(kept)
	return kept
}

// toMessages converts wire-format turns into genkit messages. Assistant
// turns map to the model role; any other role is treated as the user.
func toMessages(turns []Turn) ([]*ai.Message, error) {
	msgs := make([]*ai.Message, 0, len(turns))
	for _, t := range turns {
		parts, err := turnParts(t)
		if err != nil {
			return nil, err
		}
		if t.Role == RoleAssistant {
			msgs = append(msgs, ai.NewModelMessage(parts...))
			continue
		}
		msgs = append(msgs, ai.NewUserMessage(parts...))
	}
	return msgs, nil
}

func turnParts(t Turn) ([]*ai.Part, error) {
	parts := make([]*ai.Part, 0, len(t.Images)+1)
	for _, img := range t.Images {
		part, err := mediaPart(img)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if t.Content != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(t.Content))
	}
	return parts, nil
}

// mediaPart converts a base64 data URI into a genkit media part.
func mediaPart(dataURI string) (*ai.Part, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, fmt.Errorf("image is not a data URI")
	}
	meta, _, ok := strings.Cut(dataURI[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	return ai.NewMediaPart(mediaType, dataURI), nil
}
