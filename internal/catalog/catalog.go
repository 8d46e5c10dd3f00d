// Package catalog loads the optional YAML overlay that extends or replaces
// the built-in domain keywords and question lists.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/questions"
)

// File is the overlay document.
//
//	domains:
//	  - name: legal
//	    weight: 1.5
//	    keywords: [contract, lawsuit, clause]
//	    questions:
//	      - id: legal_jurisdiction
//	        text: Which jurisdiction applies?
//	        answers:
//	          - {label: United States, value: us}
type File struct {
	Domains []DomainEntry `yaml:"domains"`
}

// DomainEntry overrides one domain. Empty fields keep the built-in value.
type DomainEntry struct {
	Name      string          `yaml:"name"`
	Weight    float64         `yaml:"weight"`
	Keywords  []string        `yaml:"keywords"`
	Questions []QuestionEntry `yaml:"questions"`
}

type QuestionEntry struct {
	ID      string        `yaml:"id"`
	Text    string        `yaml:"text"`
	Answers []AnswerEntry `yaml:"answers"`
}

type AnswerEntry struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Catalog is the resolved classifier and question catalog.
type Catalog struct {
	Classifier *classify.Classifier
	Questions  *questions.Catalog
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{Classifier: classify.Default(), Questions: questions.Default()}
}

// Load reads the overlay at path and applies it to the defaults. An empty
// path returns the defaults.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return Apply(f)
}

// Apply merges f over the built-in profiles and questions. Known domains keep
// their position in the tie order; new domains are appended.
func Apply(f File) (Catalog, error) {
	profiles := classify.DefaultProfiles()
	entries := questions.DefaultEntries()

	index := make(map[classify.Domain]int, len(profiles))
	for i, p := range profiles {
		index[p.Domain] = i
	}

	for n, d := range f.Domains {
		name := classify.Domain(strings.ToLower(strings.TrimSpace(d.Name)))
		if name == "" {
			return Catalog{}, fmt.Errorf("domain entry %d: name is required", n)
		}
		if d.Weight < 0 {
			return Catalog{}, fmt.Errorf("domain %s: weight must not be negative", name)
		}

		qs, err := convertQuestions(name, d.Questions)
		if err != nil {
			return Catalog{}, err
		}
		if len(qs) > 0 {
			entries[name] = qs
		}

		if name == classify.General {
			if len(d.Keywords) > 0 {
				return Catalog{}, fmt.Errorf("domain general cannot have keywords")
			}
			continue
		}

		if i, ok := index[name]; ok {
			if d.Weight > 0 {
				profiles[i].Weight = d.Weight
			}
			if len(d.Keywords) > 0 {
				profiles[i].Keywords = d.Keywords
			}
			continue
		}

		if len(d.Keywords) == 0 {
			return Catalog{}, fmt.Errorf("new domain %s needs keywords", name)
		}
		weight := d.Weight
		if weight == 0 {
			weight = 1
		}
		index[name] = len(profiles)
		profiles = append(profiles, classify.Profile{Domain: name, Weight: weight, Keywords: d.Keywords})
	}

	return Catalog{
		Classifier: classify.New(profiles),
		Questions:  questions.NewCatalog(entries),
	}, nil
}

func convertQuestions(domain classify.Domain, in []QuestionEntry) ([]questions.Question, error) {
	out := make([]questions.Question, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, q := range in {
		if q.ID == "" || q.Text == "" {
			return nil, fmt.Errorf("domain %s: questions need an id and text", domain)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("domain %s: duplicate question id %s", domain, q.ID)
		}
		seen[q.ID] = true

		answers := make([]questions.Answer, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, questions.Answer{Label: a.Label, Value: a.Value})
		}
		out = append(out, questions.Question{ID: q.ID, Text: q.Text, Answers: answers})
	}
	return out, nil
}
