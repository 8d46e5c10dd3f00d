package convo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/questions"
)

// Mode is the instruction branch chosen for a request.
type Mode string

const (
	ModeStandard   Mode = "standard"
	ModeRefinement Mode = "refinement"
	ModeFollowUp   Mode = "follow_up"
)

// recentPromptLimit bounds how many previous prompts the standard and
// refinement directives quote.
const recentPromptLimit = 3

// Input is everything the directive rules look at. Rules and Closing carry
// the assembler's transformation rules and closing text, which the follow-up
// directive embeds because it replaces the whole instruction.
type Input struct {
	Domain  classify.Domain
	Context *Context
	Answers Answers
	Catalog *questions.Catalog
	Rules   string
	Closing string
}

// IsRefinement reports whether the request carries at least one answer.
func IsRefinement(a Answers) bool { return len(a) >= 1 }

// IsFollowUp reports whether the conversation already has more than one
// previous prompt.
func IsFollowUp(c *Context) bool { return c != nil && len(c.PreviousPrompts) > 1 }

type rule struct {
	mode    Mode
	matches func(Input) bool
}

// rules is evaluated in order; the first match wins. Refinement outranks
// follow-up.
var rules = []rule{
	{ModeRefinement, func(in Input) bool { return IsRefinement(in.Answers) }},
	{ModeFollowUp, func(in Input) bool { return IsFollowUp(in.Context) }},
	{ModeStandard, func(Input) bool { return true }},
}

// SelectMode returns the branch for the given context and answers.
func SelectMode(c *Context, a Answers) Mode {
	in := Input{Context: c, Answers: a}
	for _, r := range rules {
		if r.matches(in) {
			return r.mode
		}
	}
	return ModeStandard
}

// BuildInstructions returns the context directive for the selected mode.
func BuildInstructions(in Input) string {
	switch SelectMode(in.Context, in.Answers) {
	case ModeRefinement:
		return RefinementDirective(in)
	case ModeFollowUp:
		return FollowUpDirective(in)
	default:
		return StandardDirective(in)
	}
}

// FilterQuestions returns the catalog questions for domain minus those whose
// text was already asked. If that would leave nothing, the unfiltered list
// is returned instead.
func FilterQuestions(cat *questions.Catalog, domain classify.Domain, c *Context) []questions.Question {
	all := cat.For(domain)
	if c == nil || len(c.QuestionsAsked) == 0 {
		return all
	}
	asked := c.askedSet()
	filtered := make([]questions.Question, 0, len(all))
	for _, q := range all {
		if _, seen := asked[q.Text]; !seen {
			filtered = append(filtered, q)
		}
	}
	if len(filtered) == 0 {
		return all
	}
	return filtered
}

// RefinementDirective tells the model to adjust its previous rewrite using
// the user's answers instead of starting over.
func RefinementDirective(in Input) string {
	var sb strings.Builder
	sb.WriteString("REFINEMENT MODE\n")
	sb.WriteString("This request refines a prompt you already improved. Make incremental, targeted changes that apply the user's answers below. ")
	sb.WriteString("Do not repeat content that is already covered and do not restart the rewrite from scratch.\n")

	if in.Context != nil {
		if recent := lastPrompts(in.Context.PreviousPrompts, recentPromptLimit); len(recent) > 0 {
			sb.WriteString("\nRecent prompts in this conversation:\n")
			writeQuoted(&sb, recent)
		}
	}

	if lines := answerLines(in); len(lines) > 0 {
		sb.WriteString("\nUser clarifications:\n")
		for _, l := range lines {
			sb.WriteString("- ")
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FollowUpDirective is the complete instruction used for follow-up prompts.
// It replaces the standard assembly, so it carries the transformation rules
// itself.
func FollowUpDirective(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are refining prompts within an ongoing conversation. Work in two phases.\n\n")

	sb.WriteString("PHASE 1 - CONSOLIDATE (do this silently, do not output it)\n")
	sb.WriteString("Build one coherent understanding of what the user is trying to achieve from every previous prompt below")
	if in.Context != nil && in.Context.ConversationTopic != "" {
		fmt.Fprintf(&sb, " and the conversation topic %q", in.Context.ConversationTopic)
	}
	sb.WriteString(". Note what has been settled, what changed and what is still open.\n")
	if in.Context != nil {
		sb.WriteString("\nAll previous prompts, oldest first:\n")
		writeQuoted(&sb, in.Context.PreviousPrompts)
		if len(in.Context.KeyDetails) > 0 {
			fmt.Fprintf(&sb, "\nKey details so far: %s\n", strings.Join(in.Context.KeyDetails, ", "))
		}
	}

	sb.WriteString("\nPHASE 2 - TRANSFORM\n")
	sb.WriteString("Rewrite the new prompt so it builds on the consolidated understanding instead of treating it as a fresh request. Apply every rule below.\n\n")
	sb.WriteString(in.Rules)
	if in.Closing != "" {
		sb.WriteString("\n\n")
		sb.WriteString(in.Closing)
	}
	return sb.String()
}

// StandardDirective summarises the saved context. It is empty when no
// context was supplied.
func StandardDirective(in Input) string {
	c := in.Context
	if c == nil || c.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("CONVERSATION CONTEXT\n")
	if c.ConversationTopic != "" {
		fmt.Fprintf(&sb, "Topic: %s\n", c.ConversationTopic)
	}
	if len(c.KeyDetails) > 0 {
		fmt.Fprintf(&sb, "Key details: %s\n", strings.Join(c.KeyDetails, ", "))
	}
	if recent := lastPrompts(c.PreviousPrompts, recentPromptLimit); len(recent) > 0 {
		sb.WriteString("Previous prompts:\n")
		writeQuoted(&sb, recent)
	}
	if len(c.QuestionsAsked) > 0 {
		sb.WriteString("Questions already asked (do not ask them again):\n")
		for _, q := range c.QuestionsAsked {
			sb.WriteString("- ")
			sb.WriteString(q)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("Use this context to keep the rewritten prompt consistent with the conversation.")
	return sb.String()
}

func lastPrompts(pp []PreviousPrompt, n int) []PreviousPrompt {
	if len(pp) <= n {
		return pp
	}
	return pp[len(pp)-n:]
}

func writeQuoted(sb *strings.Builder, pp []PreviousPrompt) {
	for i, p := range pp {
		if p.Domain != "" {
			fmt.Fprintf(sb, "%d. %q (%s)\n", i+1, p.Original, p.Domain)
		} else {
			fmt.Fprintf(sb, "%d. %q\n", i+1, p.Original)
		}
	}
}

// answerLines renders answers in catalog order, then any unknown ids sorted.
func answerLines(in Input) []string {
	if len(in.Answers) == 0 {
		return nil
	}
	done := make(map[string]bool, len(in.Answers))
	var lines []string

	if in.Catalog != nil {
		for _, q := range in.Catalog.For(in.Domain) {
			v, ok := in.Answers[q.ID]
			if !ok {
				continue
			}
			label, ok := q.AnswerLabel(v)
			if !ok {
				label = v
			}
			lines = append(lines, fmt.Sprintf("%s %s", q.Text, label))
			done[q.ID] = true
		}
	}

	var rest []string
	for id := range in.Answers {
		if !done[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		lines = append(lines, fmt.Sprintf("%s: %s", id, in.Answers[id]))
	}
	return lines
}
