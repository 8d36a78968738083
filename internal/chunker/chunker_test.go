package chunker

import (
	"strings"
	"testing"
)

func TestNew_ParameterValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", 500, 100, false},
		{"zero overlap", 500, 0, false},
		{"overlap equals size", 500, 500, true},
		{"overlap exceeds size", 500, 501, true},
		{"negative overlap", 500, -1, true},
		{"zero size", 0, 0, true},
		{"negative size", -10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.size, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplit_StrideAndCoverage(t *testing.T) {
	s, err := New(500, 100)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("a", 1200)
	chunks := s.Split(text)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	// Start offsets advance by exactly size-overlap.
	for i, c := range chunks {
		wantStart := i * 400
		if c.Start != wantStart {
			t.Errorf("chunk %d start = %d, want %d", i, c.Start, wantStart)
		}
		if len(c.Content) > 500 {
			t.Errorf("chunk %d length %d exceeds size", i, len(c.Content))
		}
	}

	// Every character of the input is covered by at least one chunk.
	covered := 0
	for _, c := range chunks {
		end := c.Start + len([]rune(c.Content))
		if end > covered {
			covered = end
		}
	}
	if covered != len(text) {
		t.Errorf("coverage ends at %d, want %d", covered, len(text))
	}

	// Final chunk is the shorter remainder.
	if last := chunks[len(chunks)-1]; len(last.Content) >= 500 {
		t.Errorf("final chunk length = %d, want < 500", len(last.Content))
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := NewDefault()
	text := strings.Repeat("the quick brown fox ", 200)

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_ShortText(t *testing.T) {
	s := NewDefault()

	chunks := s.Split("hello")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "hello" {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].PageEstimate != 1 {
		t.Errorf("page = %d, want 1", chunks[0].PageEstimate)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := NewDefault()
	if chunks := s.Split(""); chunks != nil {
		t.Errorf("empty input produced %d chunks", len(chunks))
	}
}

func TestSplit_NoTrailingDuplicate(t *testing.T) {
	// When the window reaches the end, no extra span fully contained in
	// the previous one is emitted.
	s, err := New(500, 100)
	if err != nil {
		t.Fatal(err)
	}

	chunks := s.Split(strings.Repeat("x", 450))
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

func TestSplit_PageEstimatesNonDecreasing(t *testing.T) {
	s := NewDefault()
	chunks := s.Split(strings.Repeat("b", 10000))

	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	prev := 0
	for _, c := range chunks {
		if c.PageEstimate < prev {
			t.Errorf("page estimate decreased: %d after %d at index %d", c.PageEstimate, prev, c.Index)
		}
		if c.PageEstimate < 1 {
			t.Errorf("page estimate %d below 1", c.PageEstimate)
		}
		prev = c.PageEstimate
	}

	// A chunk starting past CharsPerPage must not report page 1.
	for _, c := range chunks {
		if c.Start >= CharsPerPage && c.PageEstimate == 1 {
			t.Errorf("chunk at offset %d still on page 1", c.Start)
		}
	}
}

func TestSplit_MultibyteRunes(t *testing.T) {
	s, err := New(10, 2)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("語", 25)
	chunks := s.Split(text)

	for i, c := range chunks {
		if n := len([]rune(c.Content)); n > 10 {
			t.Errorf("chunk %d rune length = %d, want <= 10", i, n)
		}
	}
}
