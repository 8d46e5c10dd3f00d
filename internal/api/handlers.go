package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/promptlift/internal/apperr"
	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/composer"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/pipeline"
	"github.com/kalambet/promptlift/internal/questions"
	"github.com/kalambet/promptlift/internal/scoring"
	"github.com/kalambet/promptlift/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type questionsRequest struct {
	Prompt  string          `json:"prompt"`
	Domain  classify.Domain `json:"domain"`
	Context *convo.Context  `json:"context,omitempty"`
}

type saveContextRequest struct {
	ConversationID string         `json:"conversationId"`
	Context        *convo.Context `json:"context"`
}

type improveRequest struct {
	Prompt            string          `json:"prompt"`
	Platform          string          `json:"platform"`
	Domain            classify.Domain `json:"domain,omitempty"`
	Context           *convo.Context  `json:"context,omitempty"`
	RefinementAnswers convo.Answers   `json:"refinementAnswers,omitempty"`
	ConversationID    string          `json:"conversationId,omitempty"`
}

type improveResponse struct {
	Success           bool                  `json:"success"`
	InteractionID     string                `json:"interactionId"`
	Improved          string                `json:"improved"`
	Domain            classify.Domain       `json:"domain"`
	Score             scoring.Result        `json:"score"`
	Questions         []questions.Question  `json:"questions"`
	ContextAware      bool                  `json:"contextAware"`
	IsRefinement      bool                  `json:"isRefinement"`
	ContextUsed       *pipeline.ContextUsed `json:"contextUsed,omitempty"`
	RefinementApplied *bool                 `json:"refinementApplied,omitempty"`
	Timestamp         time.Time             `json:"timestamp"`
}

type domainInfo struct {
	Name        classify.Domain `json:"name"`
	Weight      float64         `json:"weight"`
	Keywords    int             `json:"keywords"`
	Questions   int             `json:"questions"`
	HasGuidance bool            `json:"hasGuidance"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleClassify(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promptRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, err := deps.Classifier.Classify(req.Prompt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"domain":     res.Domain,
			"confidence": res.Confidence,
			"scores":     res.Scores,
		})
	}
}

func handleQuestions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionsRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := pipeline.ValidatePrompt(req.Prompt); err != nil {
			writeError(w, err)
			return
		}
		if req.Domain == "" {
			httpError(w, apperr.InvalidInput, "domain is required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"questions": convo.FilterQuestions(deps.Questions, req.Domain, req.Context),
		})
	}
}

func handleScore(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := scoring.Analyze(req.Prompt)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"score":     b.Total(),
		"breakdown": b,
	})
}

func handleDomains(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles := deps.Classifier.Profiles()
		domains := make([]domainInfo, 0, len(profiles)+1)
		for _, p := range profiles {
			domains = append(domains, domainInfo{
				Name:        p.Domain,
				Weight:      p.Weight,
				Keywords:    len(p.Keywords),
				Questions:   len(deps.Questions.For(p.Domain)),
				HasGuidance: composer.Guidance(p.Domain) != "",
			})
		}
		domains = append(domains, domainInfo{
			Name:      classify.General,
			Questions: len(deps.Questions.For(classify.General)),
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "domains": domains})
	}
}

func handleSaveContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveContextRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := convo.ValidateID(req.ConversationID); err != nil {
			writeError(w, err)
			return
		}
		if req.Context == nil {
			httpError(w, apperr.InvalidInput, "context is required")
			return
		}
		saved, err := deps.Contexts.Save(r.Context(), req.ConversationID, *req.Context)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"conversationId": req.ConversationID,
			"savedAt":        saved.SavedAt,
		})
	}
}

func handleGetContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationId")
		c, err := deps.Contexts.Get(r.Context(), id)
		if apperr.Is(err, apperr.NotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"found":   false,
				"error":   apperr.Message(err),
				"type":    apperr.NotFound,
			})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "found": true, "context": c})
	}
}

func handleDeleteContext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversationId")
		if err := deps.Contexts.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": true})
	}
}

func handleImprove(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req improveRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, err := deps.Improver.Improve(r.Context(), pipeline.Request{
			Prompt:         req.Prompt,
			Platform:       req.Platform,
			Domain:         req.Domain,
			Context:        req.Context,
			Answers:        req.RefinementAnswers,
			ConversationID: req.ConversationID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newImproveResponse(res))
	}
}

func newImproveResponse(res pipeline.Result) improveResponse {
	out := improveResponse{
		Success:       true,
		InteractionID: res.InteractionID,
		Improved:      res.Improved,
		Domain:        res.Domain,
		Score:         res.Score,
		Questions:     res.Questions,
		ContextAware:  res.ContextAware,
		IsRefinement:  res.IsRefinement,
		ContextUsed:   res.ContextUsed,
		Timestamp:     res.Timestamp,
	}
	if res.RefinementApplied {
		applied := true
		out.RefinementApplied = &applied
	}
	return out
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxHistoryLimit {
				httpError(w, apperr.InvalidInput, "limit must be an integer between 1 and %d", maxHistoryLimit)
				return
			}
			limit = n
		}

		var interactions []storage.Interaction
		var err error
		if id := r.URL.Query().Get("conversationId"); id != "" {
			interactions, err = deps.History.GetConversationInteractions(id)
		} else {
			interactions, err = deps.History.GetRecentInteractions(limit)
		}
		if err != nil {
			writeError(w, apperr.Wrap(apperr.Internal, err, "failed to load history"))
			return
		}
		if interactions == nil {
			interactions = []storage.Interaction{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "interactions": interactions})
	}
}

func handleGetInteraction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ix, err := deps.History.GetInteraction(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, apperr.NotFound, "no interaction %q", id)
			return
		}
		if err != nil {
			writeError(w, apperr.Wrap(apperr.Internal, err, "failed to load interaction"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "interaction": ix})
	}
}
