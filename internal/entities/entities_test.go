package entities

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

type fakeRecognizer []Span

func (f fakeRecognizer) Recognize(string) []Span { return f }

func TestRuleRecognizerContract(t *testing.T) {
	text := "This Agreement is made on January 5, 2024 between Acme Widgets, Inc. and Beta Corp. " +
		"Mr. John Smith shall pay $5,000.00 to the Company. This Agreement is governed by the laws of Delaware. " +
		"By: Jane Doe"
	x := NewExtractor(nil, 0, nil)
	got, err := x.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct {
		name string
		list []string
		want []string
	}{
		{"organizations", got.Organizations, []string{"Acme Widgets, Inc.", "Beta Corp."}},
		{"people", got.People, []string{"John Smith", "Jane Doe"}},
		{"dates", got.Dates, []string{"January 5, 2024"}},
		{"money", got.Money, []string{"$5,000.00"}},
		{"locations", got.Locations, []string{"Delaware"}},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.list, c.want) {
			t.Errorf("%s = %q, want %q", c.name, c.list, c.want)
		}
	}
}

func TestExtractDedupAndPartition(t *testing.T) {
	rec := fakeRecognizer{
		{Text: "Acme Corp", Label: "ORG"},
		{Text: "ACME  corp", Label: "ORG"},
		{Text: "acme corp", Label: "PERSON"},
		{Text: "Paris", Label: "GPE"},
		{Text: "Paris", Label: "PERSON"},
		{Text: "Rust", Label: "PRODUCT"},
		{Text: "ﬁrst Bank", Label: "ORG"},
		{Text: "first bank", Label: "ORG"},
	}
	got, err := NewExtractor(rec, 0, nil).Extract(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Organizations, []string{"Acme Corp", "ﬁrst Bank"}) {
		t.Errorf("organizations = %q", got.Organizations)
	}
	if len(got.People) != 0 {
		t.Errorf("people = %q, want none", got.People)
	}
	if !reflect.DeepEqual(got.Locations, []string{"Paris"}) {
		t.Errorf("locations = %q", got.Locations)
	}

	seen := map[string]string{}
	for cat, list := range map[string][]string{
		"org": got.Organizations, "person": got.People, "date": got.Dates,
		"money": got.Money, "location": got.Locations,
	} {
		for _, s := range list {
			k := DedupKey(s)
			if prev, ok := seen[k]; ok {
				t.Errorf("%q in both %s and %s", s, prev, cat)
			}
			seen[k] = cat
		}
	}
}

func TestExtractCapKeepsFirstSeen(t *testing.T) {
	var rec fakeRecognizer
	for i := 0; i < 30; i++ {
		rec = append(rec, Span{Text: fmt.Sprintf("Party %d LLC", i), Label: "ORG"})
	}
	got, _ := NewExtractor(rec, 0, nil).Extract(context.Background(), "")
	if len(got.Organizations) != DefaultMaxPerCategory {
		t.Fatalf("len = %d, want %d", len(got.Organizations), DefaultMaxPerCategory)
	}
	if got.Organizations[0] != "Party 0 LLC" || got.Organizations[19] != "Party 19 LLC" {
		t.Errorf("wrong survivors: first=%q last=%q", got.Organizations[0], got.Organizations[19])
	}
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := NewExtractor(nil, 0, nil).Extract(ctx, "Acme Inc.")
	if err == nil {
		t.Fatal("expected context error")
	}
	if got.Organizations == nil {
		t.Error("default entities should have non-nil lists")
	}
}
