// Package classify assigns a subject domain to a prompt using weighted
// keyword matching.
package classify

import (
	"math"
	"strings"

	"github.com/kalambet/promptlift/internal/apperr"
)

// Domain is a coarse subject-matter category.
type Domain string

// General is the fallback domain. It has no keyword profile.
const General Domain = "general"

// confidenceDivisor normalizes the winning score into [0,1]. It is fixed and
// independent of keyword-set size; collaborators rely on the resulting values.
const confidenceDivisor = 10.0

// Profile is the keyword set and weight for one domain.
type Profile struct {
	Domain   Domain
	Weight   float64
	Keywords []string
}

// Result is the outcome of a classification.
type Result struct {
	Domain     Domain             `json:"domain"`
	Confidence float64            `json:"confidence"`
	Scores     map[Domain]float64 `json:"scores"`
}

// Classifier scores prompts against an ordered profile table. Table order is
// the tie-break order: the first domain to reach the top score wins.
type Classifier struct {
	profiles []Profile
}

// New creates a Classifier over a copy of profiles. Keywords are lowercased.
// Profiles with a non-positive weight are skipped.
func New(profiles []Profile) *Classifier {
	c := &Classifier{profiles: make([]Profile, 0, len(profiles))}
	for _, p := range profiles {
		if p.Weight <= 0 || p.Domain == "" {
			continue
		}
		kws := make([]string, 0, len(p.Keywords))
		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		c.profiles = append(c.profiles, Profile{Domain: p.Domain, Weight: p.Weight, Keywords: kws})
	}
	return c
}

var defaultClassifier = New(DefaultProfiles())

// Default returns the classifier built from DefaultProfiles.
func Default() *Classifier { return defaultClassifier }

// Classify classifies prompt with the default classifier.
func Classify(prompt string) (Result, error) {
	return defaultClassifier.Classify(prompt)
}

// Classify returns the best-matching domain for prompt. Each keyword found as
// a substring of the lowercased prompt adds the profile weight once, no
// matter how often it occurs. When nothing matches the domain is General.
func (c *Classifier) Classify(prompt string) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, apperr.New(apperr.InvalidInput, "prompt must not be empty")
	}

	lower := strings.ToLower(prompt)
	scores := make(map[Domain]float64, len(c.profiles))
	best := General
	var bestScore float64

	for _, p := range c.profiles {
		var score float64
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				score += p.Weight
			}
		}
		scores[p.Domain] = score
		if score > bestScore {
			best = p.Domain
			bestScore = score
		}
	}

	return Result{
		Domain:     best,
		Confidence: confidence(bestScore),
		Scores:     scores,
	}, nil
}

func confidence(score float64) float64 {
	c := math.Min(score/confidenceDivisor, 1)
	return math.Round(c*100) / 100
}

// Domains lists the profiled domains in tie-break order.
func (c *Classifier) Domains() []Domain {
	out := make([]Domain, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.Domain
	}
	return out
}

// Profiles returns a copy of the profile table.
func (c *Classifier) Profiles() []Profile {
	out := make([]Profile, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = Profile{Domain: p.Domain, Weight: p.Weight, Keywords: append([]string(nil), p.Keywords...)}
	}
	return out
}

// Known reports whether d is profiled or is General.
func (c *Classifier) Known(d Domain) bool {
	if d == General {
		return true
	}
	for _, p := range c.profiles {
		if p.Domain == d {
			return true
		}
	}
	return false
}
