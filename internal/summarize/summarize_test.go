package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls map[llm.Mode]int
	fn    func(ctx context.Context, req llm.SummaryRequest) (llm.SummaryResult, error)
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Summarize(ctx context.Context, req llm.SummaryRequest) (llm.SummaryResult, []byte, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[llm.Mode]int{}
	}
	f.calls[req.Mode]++
	f.mu.Unlock()
	r, err := f.fn(ctx, req)
	return r, nil, err
}

func (f *fakeGenerator) count(m llm.Mode) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[m]
}

func (f *fakeGenerator) total() int {
	return f.count(llm.ModeChunk) + f.count(llm.ModeSynthesize)
}

func longContract(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Clause %d requires the Supplier to deliver the goods described in schedule %d within thirty days. ", i, i)
	}
	return b.String()
}

func TestSummarizeEmptyInput(t *testing.T) {
	s, err := New(Config{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Summarize(context.Background(), Input{Doc: preprocess.Process("   ")})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Summary != "" || len(res.KeyPoints) != 0 || res.SectionSummaries == nil || len(res.SectionSummaries) != 0 {
		t.Errorf("got %+v, want empty result", res)
	}
}

func TestSummarizeExtractive(t *testing.T) {
	text := "This Agreement is made between Acme Corp and Beta Limited. The sky was clear. " +
		"The Supplier shall deliver the goods pursuant to Section 3. Lunch was served. " +
		"Birds sang outside. The Buyer agrees to pay the fees in accordance with Schedule 2."
	s, _ := New(Config{Sentences: 3}, nil, nil)
	res, err := s.Summarize(context.Background(), Input{
		Doc:      preprocess.Process(text),
		Entities: entity.Entities{Organizations: []string{"Acme Corp", "Beta Limited"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != MethodExtractive {
		t.Errorf("method = %q", res.Method)
	}
	want := "This Agreement is made between Acme Corp and Beta Limited. " +
		"The Supplier shall deliver the goods pursuant to Section 3. " +
		"The Buyer agrees to pay the fees in accordance with Schedule 2."
	if res.Summary != want {
		t.Errorf("summary = %q\nwant %q", res.Summary, want)
	}
}

func TestSummarizeChunkThenSynthesize(t *testing.T) {
	text := longContract(80)
	gen := &fakeGenerator{fn: func(_ context.Context, req llm.SummaryRequest) (llm.SummaryResult, error) {
		if req.Mode == llm.ModeChunk {
			if utf8.RuneCountInString(req.Text) > 1000 {
				return llm.SummaryResult{}, fmt.Errorf("chunk too large: %d", len(req.Text))
			}
			return llm.SummaryResult{Summary: strings.Repeat("The Supplier delivers goods on time. ", 12)}, nil
		}
		return llm.SummaryResult{
			Summary:   strings.Repeat("The Supplier must deliver all scheduled goods within thirty days. ", 60),
			KeyPoints: []llm.KeyPoint{{Text: "The Supplier shall deliver within thirty days.", Category: "OBLIGATION"}},
		}, nil
	}}
	s, _ := New(Config{ChunkChars: 1000, MaxSummaryChars: 500}, gen, nil)
	res, err := s.Summarize(context.Background(), Input{Doc: preprocess.Process(text)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != MethodGenerative {
		t.Fatalf("method = %q, reason %q", res.Method, res.FallbackReason)
	}
	if n := utf8.RuneCountInString(res.Summary); n == 0 || n > 500 {
		t.Errorf("summary length = %d, want (0,500]", n)
	}
	if !strings.HasSuffix(res.Summary, ".") {
		t.Errorf("summary not cut at a sentence boundary: %q", res.Summary)
	}
	if gen.count(llm.ModeChunk) < 7 {
		t.Errorf("chunk calls = %d, want >= 7", gen.count(llm.ModeChunk))
	}
	// Chunk summaries overflow one chunk, so synthesis runs more than once.
	if gen.count(llm.ModeSynthesize) < 2 {
		t.Errorf("synthesize calls = %d, want >= 2", gen.count(llm.ModeSynthesize))
	}
	if len(res.KeyPoints) != 1 || res.KeyPoints[0].Category != "OBLIGATION" {
		t.Errorf("key points = %+v", res.KeyPoints)
	}
}

func TestSummarizeCachesChunks(t *testing.T) {
	gen := &fakeGenerator{fn: func(_ context.Context, req llm.SummaryRequest) (llm.SummaryResult, error) {
		return llm.SummaryResult{Summary: "Short summary."}, nil
	}}
	s, _ := New(Config{ChunkChars: 1000}, gen, nil)
	in := Input{Doc: preprocess.Process(longContract(30))}
	if _, err := s.Summarize(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	first := gen.total()
	if _, err := s.Summarize(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if gen.total() != first {
		t.Errorf("backend calls grew from %d to %d on identical input", first, gen.total())
	}
}

func TestSummarizeDegradesAndCoolsDown(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, llm.SummaryRequest) (llm.SummaryResult, error) {
		return llm.SummaryResult{}, common.NewModelUnavailableError("fake", errors.New("503"))
	}}
	s, _ := New(Config{Cooldown: time.Minute}, gen, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	in := Input{Doc: preprocess.Process("The Supplier shall deliver the goods. The Buyer shall pay the price.")}
	res, err := s.Summarize(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != MethodExtractive || res.Summary == "" {
		t.Fatalf("got %+v, want non-empty extractive summary", res)
	}
	if !strings.Contains(res.FallbackReason, "model unavailable") {
		t.Errorf("fallback reason = %q", res.FallbackReason)
	}

	if _, err := s.Summarize(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if gen.total() != 1 {
		t.Errorf("backend called %d times during cooldown, want 1", gen.total())
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Summarize(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	if gen.total() != 2 {
		t.Errorf("backend calls after cooldown = %d, want 2", gen.total())
	}
}

func TestSummarizeTimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{fn: func(ctx context.Context, _ llm.SummaryRequest) (llm.SummaryResult, error) {
		<-ctx.Done()
		return llm.SummaryResult{}, ctx.Err()
	}}
	s, _ := New(Config{Timeout: 20 * time.Millisecond}, gen, nil)
	res, err := s.Summarize(context.Background(), Input{Doc: preprocess.Process("The Tenant shall pay rent monthly.")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != MethodExtractive || res.FallbackReason == "" {
		t.Errorf("got %+v, want extractive fallback with a reason", res)
	}
}

func TestSummarizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := New(Config{}, nil, nil)
	if _, err := s.Summarize(ctx, Input{Doc: preprocess.Process("The Tenant shall pay rent.")}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCapAtSentence(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"One two. Three four. Five six.", 100, "One two. Three four. Five six."},
		{"One two. Three four. Five six.", 20, "One two. Three four."},
		{"Alpha beta gamma.", 5, "Alpha"},
		{"Alpha beta gamma.", 11, "Alpha beta"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.max), func(t *testing.T) {
			if got := capAtSentence(tt.in, tt.max); got != tt.want {
				t.Errorf("capAtSentence(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestChunkUnits(t *testing.T) {
	units := []string{strings.Repeat("a", 30), strings.Repeat("b", 30), strings.Repeat("word ", 20)}
	chunks := chunkUnits(units, 40, " ")
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 40 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	joined := strings.Join(chunks, " ")
	for _, u := range units {
		for _, w := range strings.Fields(u) {
			if !strings.Contains(joined, w) {
				t.Errorf("lost %q", w)
			}
		}
	}
}

func TestKeyPoints(t *testing.T) {
	doc := preprocess.Process("The Tenant hereby agrees to pay, pursuant to Section 4, the rent that shall be due. The sky is blue.")
	kps := keyPoints(doc, entity.Entities{})
	if len(kps) != 1 {
		t.Fatalf("key points = %+v, want 1", kps)
	}
	if kps[0].Category != "OBLIGATION" || kps[0].Importance <= 0.5 {
		t.Errorf("key point = %+v", kps[0])
	}
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"The Supplier shall deliver.":               "OBLIGATION",
		"The Seller represents that it is solvent.": "REPRESENTATION",
		"Either party may terminate this lease.":    "TERMINATION",
		"Fees are due upon invoice.":                "PAYMENT",
		"This page is intentionally blank.":         "GENERAL",
	}
	for in, want := range tests {
		if got := Categorize(in); got != want {
			t.Errorf("Categorize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"1. DEFINITIONS", true},
		{"ARTICLE V TERM", true},
		{"2.3 Confidential Information", true},
		{"Section 4 Payment Of Fees And Expenses", true},
		{"Payment Terms", true},
		{"  Governing Law  ", true},
		{"The Client shall pay all Fees within thirty days.", false},
		{"Fees.", false},
		{"in witness whereof", false},
		{"1. The Supplier shall deliver the goods to the Buyer at the address in Schedule 2", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isHeading(tt.line); got != tt.want {
			t.Errorf("isHeading(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestSectionSummaries(t *testing.T) {
	text := "This Agreement is made between Acme Corp and Beta Limited.\n\n" +
		"1. DEFINITIONS\nServices means the consulting services. Fees means the amounts in Schedule 1.\n\n" +
		"PAYMENT\nThe Client shall pay the Fees monthly. Late Fees accrue interest. The Fees are payable in dollars.\n\n" +
		"Term and Termination\n\n" +
		"Either party may terminate on notice."

	s, _ := New(Config{}, nil, nil)
	res, err := s.Summarize(context.Background(), Input{Doc: preprocess.Process(text)})
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, sec := range res.SectionSummaries {
		titles = append(titles, sec.Title)
	}
	want := []string{"Introduction", "1. DEFINITIONS", "PAYMENT", "Term and Termination"}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("titles = %q, want %q", titles, want)
	}

	intro := res.SectionSummaries[0]
	if intro.Summary != "This Agreement is made between Acme Corp and Beta Limited." {
		t.Errorf("intro summary = %q", intro.Summary)
	}
	payment := res.SectionSummaries[2]
	if n := len(preprocess.Process(payment.Summary).Sentences()); n != 1 {
		t.Errorf("payment summary has %d sentences, want 1: %q", n, payment.Summary)
	}
	if !strings.Contains(text, payment.Summary) {
		t.Errorf("payment summary %q is not a sentence of the section", payment.Summary)
	}
	wantTerms := []entity.KeyTerm{
		{Term: "fees", Frequency: 3},
		{Term: "accrue", Frequency: 1},
		{Term: "client", Frequency: 1},
		{Term: "dollars", Frequency: 1},
		{Term: "interest", Frequency: 1},
	}
	if fmt.Sprint(payment.KeyTerms) != fmt.Sprint(wantTerms) {
		t.Errorf("key terms = %v, want %v", payment.KeyTerms, wantTerms)
	}
	if last := res.SectionSummaries[3]; last.Summary != "Either party may terminate on notice." {
		t.Errorf("heading-only paragraph should take the next paragraph, got %q", last.Summary)
	}
}

func TestSectionSummariesWithoutHeadings(t *testing.T) {
	secs := sectionSummaries(preprocess.Process(longContract(10)), entity.Entities{}, 2000)
	if len(secs) != 1 || secs[0].Title != "Introduction" {
		t.Fatalf("sections = %+v, want one introduction", secs)
	}
	if n := len(preprocess.Process(secs[0].Summary).Sentences()); n != 2 {
		t.Errorf("summary keeps %d of 10 sentences, want 2", n)
	}
}

func TestKeyTermsSkipModalVerbs(t *testing.T) {
	doc := preprocess.Process("The Tenant shall pay rent. The Tenant must insure the premises. The Landlord may inspect the premises and will repair defects.")
	terms := keyTerms(doc)
	for _, kt := range terms {
		switch kt.Term {
		case "shall", "must", "may", "will":
			t.Errorf("modal verb %q listed as key term: %v", kt.Term, terms)
		}
	}
	if len(terms) < 2 || terms[0] != (entity.KeyTerm{Term: "premises", Frequency: 2}) || terms[1] != (entity.KeyTerm{Term: "tenant", Frequency: 2}) {
		t.Fatalf("terms = %v, want premises and tenant first", terms)
	}
}
