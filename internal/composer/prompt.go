// Package composer assembles the system instruction sent to the completion
// model from fixed templates, domain guidance and conversation context.
package composer

import (
	"strings"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/questions"
)

// Input describes one rewrite request.
type Input struct {
	Domain   classify.Domain
	Platform string
	Context  *convo.Context
	Answers  convo.Answers
}

// Composer builds instructions. It is safe for concurrent use.
type Composer struct {
	catalog *questions.Catalog
}

// New creates a Composer. The catalog resolves refinement answers to their
// question text; nil uses the default catalog.
func New(catalog *questions.Catalog) *Composer {
	if catalog == nil {
		catalog = questions.Default()
	}
	return &Composer{catalog: catalog}
}

// Assemble returns the full system instruction for in. Follow-up requests
// return the follow-up directive alone, without the domain guidance block.
func (c *Composer) Assemble(in Input) string {
	closing := joinBlocks(platformHeuristics[in.Platform], outputFormat)
	dir := convo.Input{
		Domain:  in.Domain,
		Context: in.Context,
		Answers: in.Answers,
		Catalog: c.catalog,
		Rules:   transformationRules,
		Closing: closing,
	}

	if convo.SelectMode(in.Context, in.Answers) == convo.ModeFollowUp {
		return convo.FollowUpDirective(dir)
	}

	return joinBlocks(
		preamble,
		transformationRules,
		Guidance(in.Domain),
		convo.BuildInstructions(dir),
		closing,
	)
}

// Mode reports the branch Assemble takes for in.
func (c *Composer) Mode(in Input) convo.Mode {
	return convo.SelectMode(in.Context, in.Answers)
}

// Guidance returns the domain block for d, or "" when d has none.
func Guidance(d classify.Domain) string {
	return guidance[d]
}

// UserMessage wraps the original prompt as the user-role message.
func UserMessage(prompt string) string {
	return "Improve this prompt:\n\n" + strings.TrimSpace(prompt)
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// joinBlocks joins non-empty blocks with a blank line.
func joinBlocks(blocks ...string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}
