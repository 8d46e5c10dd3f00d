// Package pipeline orchestrates one prompt improvement: validation,
// classification, context loading, instruction assembly, the completion
// call, scoring and the interaction log.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/promptlift/internal/apperr"
	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/composer"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/proxy"
	"github.com/kalambet/promptlift/internal/questions"
	"github.com/kalambet/promptlift/internal/scoring"
	"github.com/kalambet/promptlift/internal/storage"
)

// Platforms the assembler has closing heuristics for.
var Platforms = []string{"chatgpt", "claude"}

// InteractionRecorder stores completed improvements.
type InteractionRecorder interface {
	SaveInteraction(i storage.Interaction) error
}

// Request is one improvement request.
type Request struct {
	Prompt         string
	Platform       string
	Domain         classify.Domain
	Context        *convo.Context
	Answers        convo.Answers
	ConversationID string
}

// ContextUsed summarises the conversation context that shaped the result.
type ContextUsed struct {
	Topic           string     `json:"topic,omitempty"`
	PreviousPrompts int        `json:"previousPrompts"`
	KeyDetails      int        `json:"keyDetails"`
	Mode            convo.Mode `json:"mode"`
}

// Result is the outcome of a successful improvement.
type Result struct {
	InteractionID     string
	Improved          string
	Domain            classify.Domain
	Score             scoring.Result
	Questions         []questions.Question
	Mode              convo.Mode
	ContextAware      bool
	IsRefinement      bool
	ContextUsed       *ContextUsed
	RefinementApplied bool
	Timestamp         time.Time
}

// Improver runs the improvement pipeline. It is safe for concurrent use.
type Improver struct {
	classifier *classify.Classifier
	catalog    *questions.Catalog
	composer   *composer.Composer
	gateway    proxy.Completer
	contexts   convo.Store
	recorder   InteractionRecorder
	now        func() time.Time
}

// Option configures an Improver.
type Option func(*Improver)

// WithContextStore lets requests that carry only a conversation id pick up
// the stored context.
func WithContextStore(s convo.Store) Option {
	return func(im *Improver) { im.contexts = s }
}

// WithRecorder logs successful improvements.
func WithRecorder(r InteractionRecorder) Option {
	return func(im *Improver) { im.recorder = r }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(im *Improver) { im.now = now }
}

// NewImprover wires the pipeline. A nil classifier or catalog uses the
// built-in defaults.
func NewImprover(classifier *classify.Classifier, catalog *questions.Catalog, gateway proxy.Completer, opts ...Option) *Improver {
	if classifier == nil {
		classifier = classify.Default()
	}
	if catalog == nil {
		catalog = questions.Default()
	}
	im := &Improver{
		classifier: classifier,
		catalog:    catalog,
		composer:   composer.New(catalog),
		gateway:    gateway,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ValidatePlatform rejects platforms without closing heuristics.
func ValidatePlatform(p string) error {
	for _, known := range Platforms {
		if p == known {
			return nil
		}
	}
	if p == "" {
		return apperr.New(apperr.InvalidInput, "platform is required")
	}
	return apperr.New(apperr.InvalidInput, "unsupported platform %q (use chatgpt or claude)", p)
}

// ValidatePrompt rejects empty or whitespace-only prompts.
func ValidatePrompt(p string) error {
	if strings.TrimSpace(p) == "" {
		return apperr.New(apperr.InvalidInput, "prompt is required")
	}
	return nil
}

// Improve rewrites req.Prompt. Input is validated before the gateway is
// called; gateway failures are returned with their apperr kind intact.
func (im *Improver) Improve(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if err := ValidatePrompt(req.Prompt); err != nil {
		return Result{}, err
	}
	if err := ValidatePlatform(req.Platform); err != nil {
		return Result{}, err
	}

	domain := req.Domain
	if domain == "" {
		classified, err := im.classifier.Classify(req.Prompt)
		if err != nil {
			return Result{}, err
		}
		domain = classified.Domain
	}

	cc := req.Context
	if cc == nil && req.ConversationID != "" {
		cc = im.loadContext(ctx, req.ConversationID)
	}

	in := composer.Input{
		Domain:   domain,
		Platform: req.Platform,
		Context:  cc,
		Answers:  req.Answers,
	}
	mode := im.composer.Mode(in)
	system := im.composer.Assemble(in)

	improved, err := im.gateway.Complete(ctx, system, composer.UserMessage(req.Prompt))
	if err != nil {
		slog.Warn("improve: completion failed",
			"domain", domain,
			"mode", mode,
			"kind", apperr.KindOf(err),
			"error", err,
		)
		return Result{}, err
	}

	res := Result{
		InteractionID: uuid.New().String(),
		Improved:      improved,
		Domain:        domain,
		Score:         scoring.Compare(req.Prompt, improved),
		Questions:     convo.FilterQuestions(im.catalog, domain, cc),
		Mode:          mode,
		ContextAware:  cc != nil && !cc.Empty(),
		IsRefinement:  convo.IsRefinement(req.Answers),
		Timestamp:     im.now(),
	}
	if res.ContextAware {
		res.ContextUsed = &ContextUsed{
			Topic:           cc.ConversationTopic,
			PreviousPrompts: len(cc.PreviousPrompts),
			KeyDetails:      len(cc.KeyDetails),
			Mode:            mode,
		}
	}
	res.RefinementApplied = mode == convo.ModeRefinement

	im.record(req, res)

	slog.Debug("improve complete",
		"domain", domain,
		"mode", mode,
		"instruction_tokens", composer.EstimateTokens(system),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// loadContext returns the stored context for id, or nil on a miss.
func (im *Improver) loadContext(ctx context.Context, id string) *convo.Context {
	if im.contexts == nil {
		return nil
	}
	c, err := im.contexts.Get(ctx, id)
	if err != nil {
		if !apperr.Is(err, apperr.NotFound) {
			slog.Warn("improve: loading stored context failed", "conversation_id", id, "error", err)
		}
		return nil
	}
	return &c
}

func (im *Improver) record(req Request, res Result) {
	if im.recorder == nil {
		return
	}
	err := im.recorder.SaveInteraction(storage.Interaction{
		ID:             res.InteractionID,
		CreatedAt:      res.Timestamp,
		ConversationID: req.ConversationID,
		Platform:       req.Platform,
		Domain:         string(res.Domain),
		Mode:           string(res.Mode),
		Original:       req.Prompt,
		Improved:       res.Improved,
		ScoreBefore:    res.Score.Before,
		ScoreAfter:     res.Score.After,
	})
	if err != nil {
		slog.Warn("improve: failed to record interaction", "id", res.InteractionID, "error", err)
	}
}
