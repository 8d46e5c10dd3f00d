package questions

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/promptlift/internal/classify"
)

func TestFor_UnknownFallsBackToGeneral(t *testing.T) {
	qs := Default().For("nonexistent_domain_xyz")
	if len(qs) != 3 {
		t.Fatalf("got %d questions, want 3", len(qs))
	}
	for i, want := range []string{"q1", "q2", "q3"} {
		if qs[i].ID != want {
			t.Errorf("qs[%d].ID = %q, want %q", i, qs[i].ID, want)
		}
	}
}

func TestFor_EveryProfiledDomainHasQuestions(t *testing.T) {
	c := Default()
	entries := c.Entries()
	for _, d := range classify.Default().Domains() {
		qs, ok := entries[d]
		if !ok || len(qs) == 0 {
			t.Errorf("domain %q has no questions", d)
			continue
		}
		seen := make(map[string]bool)
		for _, q := range qs {
			if seen[q.ID] {
				t.Errorf("domain %q: duplicate question id %q", d, q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestFor_ReturnsCopy(t *testing.T) {
	c := Default()
	qs := c.For(classify.Technical)
	qs[0].Text = "mutated"
	qs[0].Answers[0].Label = "mutated"
	qs = qs[:1]

	again := c.For(classify.Technical)
	if again[0].Text == "mutated" || again[0].Answers[0].Label == "mutated" {
		t.Error("catalog state changed through returned slice")
	}
	if len(again) < 2 {
		t.Errorf("catalog list truncated: %d", len(again))
	}
}

func TestFor_NoGeneral(t *testing.T) {
	c := NewCatalog(map[classify.Domain][]Question{
		classify.Technical: {{ID: "a", Text: "A?"}},
	})
	qs := c.For("unknown")
	if qs == nil || len(qs) != 0 {
		t.Errorf("For(unknown) = %#v, want empty non-nil slice", qs)
	}
}

func TestNewCatalog_CopiesInput(t *testing.T) {
	in := map[classify.Domain][]Question{
		classify.General: {{ID: "q1", Text: "Original?", Answers: []Answer{{Label: "A", Value: "a"}}}},
	}
	c := NewCatalog(in)
	in[classify.General][0].Text = "changed"

	want := []Question{{ID: "q1", Text: "Original?", Answers: []Answer{{Label: "A", Value: "a"}}}}
	if diff := cmp.Diff(want, c.For(classify.General)); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	q, ok := c.Lookup(classify.Fitness, "fit_goal")
	if !ok {
		t.Fatal("fit_goal not found")
	}
	label, ok := q.AnswerLabel("muscle")
	if !ok || label != "Build muscle" {
		t.Errorf("AnswerLabel(muscle) = %q, %v", label, ok)
	}

	if _, ok := c.Lookup("unknown", "q2"); !ok {
		t.Error("expected unknown domain lookup to use general list")
	}
	if _, ok := c.Lookup(classify.Fitness, "q1"); ok {
		t.Error("q1 should not resolve within fitness")
	}
}
