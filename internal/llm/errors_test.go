package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil passes through",
			err:  nil,
			want: nil,
		},
		{
			name: "structured 429 is quota",
			err:  genai.APIError{Code: 429, Message: "Resource has been exhausted"},
			want: ErrQuotaExceeded,
		},
		{
			name: "structured 503 is unavailable",
			err:  genai.APIError{Code: 503, Message: "The model is overloaded"},
			want: ErrUnavailable,
		},
		{
			name: "structured 500 is unavailable",
			err:  genai.APIError{Code: 500, Message: "internal"},
			want: ErrUnavailable,
		},
		{
			name: "wrapped structured error still classified",
			err:  fmt.Errorf("generate: %w", genai.APIError{Code: 429, Message: "quota"}),
			want: ErrQuotaExceeded,
		},
		{
			name: "quota substring fallback",
			err:  errors.New("googleai: rate limit exceeded for project"),
			want: ErrQuotaExceeded,
		},
		{
			name: "resource exhausted substring is quota",
			err:  errors.New("rpc error: code = RESOURCE_EXHAUSTED desc = quota metric"),
			want: ErrQuotaExceeded,
		},
		{
			name: "unavailable substring fallback",
			err:  errors.New("503 Service Unavailable"),
			want: ErrUnavailable,
		},
		{
			name: "connection reset is unavailable",
			err:  errors.New("read tcp: connection reset by peer"),
			want: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyUnknownErrorUnchanged(t *testing.T) {
	orig := errors.New("invalid argument: unknown model")
	got := Classify(orig)
	assert.Equal(t, orig, got)
	assert.NotErrorIs(t, got, ErrQuotaExceeded)
	assert.NotErrorIs(t, got, ErrUnavailable)
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(Classify(genai.APIError{Code: 429, Message: "quota"})),
		"quota errors must never be retried in-process")
	assert.True(t, retryable(Classify(genai.APIError{Code: 503, Message: "overloaded"})))
	assert.True(t, retryable(errors.New("dial tcp: i/o timeout")))
	assert.False(t, retryable(errors.New("invalid argument")))
}
