package stats

import (
	"math"
	"testing"

	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

func TestSyllables(t *testing.T) {
	tests := map[string]int{
		"the":       1,
		"agreement": 3,
		"table":     2,
		"shall":     1,
		"party":     2,
		"terminate": 3,
		"signed":    1,
		"notice":    2,
		"a":         1,
		"rhythm":    1,
	}
	for w, want := range tests {
		if got := Syllables(w); got != want {
			t.Errorf("Syllables(%q) = %d, want %d", w, got, want)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	st := NewComputer(0).Compute(preprocess.Process(""))
	if st.WordCount != 0 || st.SentenceCount != 0 || st.ReadingLevel != 0 || st.ReadingTime != 0 {
		t.Errorf("stats = %+v, want zero", st)
	}
}

func TestComputeFleschKincaid(t *testing.T) {
	// 6 words, 1 sentence; syllables: the(1) cat(1) sat(1) on(1) the(1) mat(1)
	st := NewComputer(0).Compute(preprocess.Process("The cat sat on the mat."))
	if st.WordCount != 6 || st.SentenceCount != 1 {
		t.Fatalf("counts = %d/%d", st.WordCount, st.SentenceCount)
	}
	want := 0.39*6 + 11.8*1 - 15.59
	if math.Abs(st.ReadingLevel-want) > 1e-9 {
		t.Errorf("reading level = %v, want %v", st.ReadingLevel, want)
	}
	if math.Abs(st.ReadingTime-6.0/200) > 1e-12 {
		t.Errorf("reading time = %v", st.ReadingTime)
	}
	if st.ReadingMinutes() != 1 {
		t.Errorf("reading minutes = %d, want 1", st.ReadingMinutes())
	}
}

func TestComputeCustomWPM(t *testing.T) {
	st := NewComputer(3).Compute(preprocess.Process("One two three. Four five six."))
	if st.ReadingTime != 2 || st.SentenceCount != 2 {
		t.Errorf("stats = %+v", st)
	}
}
