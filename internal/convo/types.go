// Package convo holds per-conversation state: the context record, the
// storage contract for it, and the rules that turn it into instructions for
// the completion model.
package convo

import (
	"time"

	"github.com/kalambet/promptlift/internal/classify"
)

// PreviousPrompt is an earlier prompt in the same conversation.
type PreviousPrompt struct {
	Original string          `json:"original"`
	Domain   classify.Domain `json:"domain"`
}

// Message is one turn of the optional conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the state saved for one conversation id. A save replaces the
// whole record.
type Context struct {
	ConversationTopic   string           `json:"conversationTopic,omitempty"`
	KeyDetails          []string         `json:"keyDetails,omitempty"`
	PreviousPrompts     []PreviousPrompt `json:"previousPrompts,omitempty"`
	QuestionsAsked      []string         `json:"questionsAsked,omitempty"`
	ConversationHistory []Message        `json:"conversationHistory,omitempty"`
	SavedAt             time.Time        `json:"savedAt,omitzero"`
}

// Answers maps question ids to the selected answer value.
type Answers map[string]string

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	cp := c
	cp.KeyDetails = cloneSlice(c.KeyDetails)
	cp.PreviousPrompts = cloneSlice(c.PreviousPrompts)
	cp.QuestionsAsked = cloneSlice(c.QuestionsAsked)
	cp.ConversationHistory = cloneSlice(c.ConversationHistory)
	return cp
}

// Empty reports whether c carries no conversational information.
func (c Context) Empty() bool {
	return c.ConversationTopic == "" &&
		len(c.KeyDetails) == 0 &&
		len(c.PreviousPrompts) == 0 &&
		len(c.QuestionsAsked) == 0 &&
		len(c.ConversationHistory) == 0
}

func (c Context) askedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.QuestionsAsked))
	for _, q := range c.QuestionsAsked {
		set[q] = struct{}{}
	}
	return set
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
