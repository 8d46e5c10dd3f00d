// Package questions holds the per-domain clarification questions offered to
// the user before a prompt is refined.
package questions

import (
	"github.com/kalambet/promptlift/internal/classify"
)

// Answer is one selectable answer to a Question.
type Answer struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Question is a clarification question template. Answers may be empty, in
// which case the client collects free text.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// Catalog maps domains to their ordered question lists.
type Catalog struct {
	entries map[classify.Domain][]Question
}

// NewCatalog creates a Catalog over a deep copy of entries.
func NewCatalog(entries map[classify.Domain][]Question) *Catalog {
	c := &Catalog{entries: make(map[classify.Domain][]Question, len(entries))}
	for d, qs := range entries {
		c.entries[d] = copyQuestions(qs)
	}
	return c
}

var defaultCatalog = NewCatalog(DefaultEntries())

// Default returns the catalog built from DefaultEntries.
func Default() *Catalog { return defaultCatalog }

// For returns the questions registered for domain, falling back to the
// general list for unknown domains, and to an empty list if general is
// missing too. The result is a fresh copy.
func (c *Catalog) For(domain classify.Domain) []Question {
	if qs, ok := c.entries[domain]; ok {
		return copyQuestions(qs)
	}
	if qs, ok := c.entries[classify.General]; ok {
		return copyQuestions(qs)
	}
	return []Question{}
}

// Lookup resolves a question by id within the list For(domain) would return.
func (c *Catalog) Lookup(domain classify.Domain, id string) (Question, bool) {
	qs, ok := c.entries[domain]
	if !ok {
		qs = c.entries[classify.General]
	}
	for _, q := range qs {
		if q.ID == id {
			return copyQuestion(q), true
		}
	}
	return Question{}, false
}

// Entries returns a deep copy of all registered lists.
func (c *Catalog) Entries() map[classify.Domain][]Question {
	out := make(map[classify.Domain][]Question, len(c.entries))
	for d, qs := range c.entries {
		out[d] = copyQuestions(qs)
	}
	return out
}

// AnswerLabel returns the label of the answer with the given value.
func (q Question) AnswerLabel(value string) (string, bool) {
	for _, a := range q.Answers {
		if a.Value == value {
			return a.Label, true
		}
	}
	return "", false
}

func copyQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = copyQuestion(q)
	}
	return out
}

func copyQuestion(q Question) Question {
	cp := q
	cp.Answers = make([]Answer, len(q.Answers))
	copy(cp.Answers, q.Answers)
	return cp
}
