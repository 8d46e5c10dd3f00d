package convo

import (
	"strings"
	"testing"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/questions"
)

func prompts(texts ...string) []PreviousPrompt {
	out := make([]PreviousPrompt, len(texts))
	for i, t := range texts {
		out[i] = PreviousPrompt{Original: t, Domain: classify.Technical}
	}
	return out
}

func TestSelectMode(t *testing.T) {
	two := &Context{PreviousPrompts: prompts("first", "second")}
	one := &Context{PreviousPrompts: prompts("first")}

	tests := []struct {
		name    string
		ctx     *Context
		answers Answers
		want    Mode
	}{
		{"no context", nil, nil, ModeStandard},
		{"single previous prompt", one, nil, ModeStandard},
		{"follow-up", two, nil, ModeFollowUp},
		{"empty answers are not refinement", two, Answers{}, ModeFollowUp},
		{"refinement outranks follow-up", two, Answers{"q1": "a"}, ModeRefinement},
		{"refinement without context", nil, Answers{"q1": "a"}, ModeRefinement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectMode(tt.ctx, tt.answers); got != tt.want {
				t.Errorf("SelectMode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterQuestions_RemovesAsked(t *testing.T) {
	cat := questions.Default()
	all := cat.For(classify.General)
	c := &Context{QuestionsAsked: []string{all[0].Text}}

	got := FilterQuestions(cat, classify.General, c)
	if len(got) != len(all)-1 {
		t.Fatalf("got %d questions, want %d", len(got), len(all)-1)
	}
	for _, q := range got {
		if q.Text == all[0].Text {
			t.Errorf("asked question %q was not filtered", q.Text)
		}
	}
}

func TestFilterQuestions_NeverEmpty(t *testing.T) {
	cat := questions.Default()
	all := cat.For(classify.General)
	asked := make([]string, len(all))
	for i, q := range all {
		asked[i] = q.Text
	}

	got := FilterQuestions(cat, classify.General, &Context{QuestionsAsked: asked})
	if len(got) != len(all) {
		t.Errorf("got %d questions, want unfiltered %d", len(got), len(all))
	}

	for _, d := range classify.Default().Domains() {
		var asked []string
		for _, q := range cat.For(d) {
			asked = append(asked, q.Text)
		}
		if got := FilterQuestions(cat, d, &Context{QuestionsAsked: asked}); len(got) == 0 {
			t.Errorf("FilterQuestions(%s) returned empty", d)
		}
	}
}

func TestFilterQuestions_NilContext(t *testing.T) {
	cat := questions.Default()
	if got := FilterQuestions(cat, classify.Fitness, nil); len(got) != len(cat.For(classify.Fitness)) {
		t.Errorf("got %d questions", len(got))
	}
}

func TestStandardDirective(t *testing.T) {
	c := &Context{
		ConversationTopic: "API design",
		KeyDetails:        []string{"REST", "Go"},
		PreviousPrompts:   prompts("Design an API"),
		QuestionsAsked:    []string{"What is your experience level?"},
	}
	got := StandardDirective(Input{Context: c})

	for _, want := range []string{
		"Topic: API design",
		"Key details: REST, Go",
		`"Design an API"`,
		"- What is your experience level?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("directive missing %q:\n%s", want, got)
		}
	}
}

func TestStandardDirective_LastThreePrompts(t *testing.T) {
	c := &Context{PreviousPrompts: prompts("p1", "p2", "p3", "p4", "p5")}
	got := StandardDirective(Input{Context: c})
	if strings.Contains(got, `"p2"`) || strings.Contains(got, `"p1"`) {
		t.Errorf("directive quotes prompts older than the last three:\n%s", got)
	}
	for _, want := range []string{`"p3"`, `"p4"`, `"p5"`} {
		if !strings.Contains(got, want) {
			t.Errorf("directive missing %s", want)
		}
	}
}

func TestStandardDirective_NoContext(t *testing.T) {
	if got := StandardDirective(Input{}); got != "" {
		t.Errorf("directive = %q, want empty", got)
	}
	if got := StandardDirective(Input{Context: &Context{}}); got != "" {
		t.Errorf("directive for empty context = %q, want empty", got)
	}
}

func TestFollowUpDirective_UsesAllPrompts(t *testing.T) {
	c := &Context{
		ConversationTopic: "novel",
		PreviousPrompts:   prompts("p1", "p2", "p3", "p4", "p5"),
	}
	got := BuildInstructions(Input{Context: c, Rules: "RULES", Closing: "CLOSING"})

	for _, want := range []string{"PHASE 1", "PHASE 2", `"p1"`, `"p5"`, `"novel"`, "RULES", "CLOSING"} {
		if !strings.Contains(got, want) {
			t.Errorf("follow-up directive missing %q", want)
		}
	}
}

func TestRefinementDirective(t *testing.T) {
	c := &Context{PreviousPrompts: prompts("p1", "p2", "p3", "p4")}
	in := Input{
		Domain:  classify.Fitness,
		Context: c,
		Answers: Answers{"fit_goal": "muscle", "zz_custom": "free text", "aa_custom": "x"},
		Catalog: questions.Default(),
	}
	got := BuildInstructions(in)

	if !strings.Contains(got, "REFINEMENT MODE") {
		t.Fatalf("expected refinement directive, got:\n%s", got)
	}
	if strings.Contains(got, `"p1"`) {
		t.Error("refinement directive quotes more than the last three prompts")
	}
	if !strings.Contains(got, "What is your primary goal? Build muscle") {
		t.Errorf("answer not rendered with question text and label:\n%s", got)
	}
	a := strings.Index(got, "aa_custom: x")
	z := strings.Index(got, "zz_custom: free text")
	if a < 0 || z < 0 || a > z {
		t.Errorf("unknown answers not rendered in sorted order:\n%s", got)
	}
}
