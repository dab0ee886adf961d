// Package profile turns an actor profile into the descriptor strings that
// retrieval appends to the match text.
package profile

import (
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/lorekeep/keyword"
)

const (
	maxRelations      = 5
	maxRelationLabels = 2
	maxSkillLevel     = 20

	skilledLevel = 10
	masterLevel  = 15
)

// titleWord matches runs of letters, digits and underscores in any script.
var titleWord = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Profile is the typed description of an actor.
type Profile struct {
	Name string
	// Humanlike actors get an age bracket.
	Humanlike bool
	// Age is the biological age in years.
	Age       float64
	Gender    string
	Species   string
	Xenotype  string
	Traits    []string
	Skills    []Skill
	Health    *Health
	Relations []Relation
	// AdulthoodTitle and ChildhoodTitle are backstory titles.
	AdulthoodTitle string
	ChildhoodTitle string
}

// Skill is one skill with its level.
type Skill struct {
	Name     string
	Level    int
	Disabled bool
}

// Health summarizes the actor's condition.
type Health struct {
	Injured bool
	Healing bool
	// Percent is overall health in [0,1].
	Percent float64
}

// Relation is another actor related to this one.
type Relation struct {
	Name string
	// Labels are relation names such as "spouse", most significant first.
	Labels []string
	// Important relations are listed before the rest.
	Important bool
}

// Describer converts profiles into descriptors.
type Describer struct {
	negative map[string]bool
	logger   *slog.Logger
}

// Option configures a Describer.
type Option func(*Describer)

// WithNegativeKeywords drops the given descriptors, compared case-insensitively.
func WithNegativeKeywords(words ...string) Option {
	return func(d *Describer) {
		for _, w := range words {
			if f := keyword.Fold(strings.TrimSpace(w)); f != "" {
				d.negative[f] = true
			}
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Describer) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// NewDescriber creates a Describer.
func NewDescriber(opts ...Option) *Describer {
	d := &Describer{negative: make(map[string]bool), logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "profile")
	return d
}

// Descriptors converts p with a default Describer.
func Descriptors(p *Profile) []string {
	return NewDescriber().Descriptors(p)
}

// Descriptors returns the descriptors for p in a fixed order: name, age
// bracket, gender, species, traits, skills, health, relations, backstory.
// Duplicates are dropped case-insensitively. Malformed fields are skipped.
func (d *Describer) Descriptors(p *Profile) []string {
	if p == nil {
		return nil
	}
	out := &descriptorSet{seen: make(map[string]bool)}

	out.add(p.Name)

	if p.Humanlike {
		if math.IsNaN(p.Age) || math.IsInf(p.Age, 0) || p.Age < 0 {
			d.logger.Warn("skipping malformed age", "name", p.Name, "age", p.Age)
		} else {
			out.add(AgeBracket(p.Age))
		}
	}

	out.add(p.Gender)

	if species := strings.TrimSpace(p.Species); species != "" {
		out.add(species)
		if xenotype := strings.TrimSpace(p.Xenotype); xenotype != "" {
			out.add(xenotype)
			out.add(species + "-" + xenotype)
		}
	}

	for _, trait := range p.Traits {
		out.add(trait)
	}

	for _, skill := range p.Skills {
		if skill.Level < 0 || skill.Level > maxSkillLevel {
			d.logger.Warn("skipping malformed skill", "name", p.Name, "skill", skill.Name, "level", skill.Level)
			continue
		}
		if skill.Disabled || skill.Level < skilledLevel {
			continue
		}
		out.add(skill.Name)
		if skill.Level >= masterLevel {
			out.add("master")
		} else {
			out.add("skilled")
		}
	}

	if h := p.Health; h != nil {
		if h.Injured {
			out.add("injured")
		}
		if h.Healing {
			out.add("recovering")
		}
		if h.Percent > 0.9 {
			out.add("healthy")
		}
	}

	for _, rel := range selectRelations(p.Relations) {
		out.add(rel.Name)
		for _, label := range rel.Labels[:min(len(rel.Labels), maxRelationLabels)] {
			out.add(label)
		}
	}

	out.addTitle(p.AdulthoodTitle)
	out.addTitle(p.ChildhoodTitle)

	return d.filter(out.words)
}

func (d *Describer) filter(words []string) []string {
	if len(d.negative) == 0 {
		return words
	}
	kept := words[:0]
	removed := 0
	for _, w := range words {
		if d.negative[keyword.Fold(w)] {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	if removed > 0 {
		d.logger.Debug("negative keywords removed from profile", "removed", removed)
	}
	return kept
}

// AgeBracket names the life stage for an age in years.
func AgeBracket(age float64) string {
	switch {
	case age < 3:
		return "infant"
	case age < 13:
		return "child"
	case age < 18:
		return "teenager"
	default:
		return "adult"
	}
}

// selectRelations keeps up to five relations, important ones first.
func selectRelations(relations []Relation) []Relation {
	ordered := slices.Clone(relations)
	slices.SortStableFunc(ordered, func(a, b Relation) int {
		if a.Important == b.Important {
			return 0
		}
		if a.Important {
			return -1
		}
		return 1
	})
	ordered = slices.DeleteFunc(ordered, func(r Relation) bool {
		return strings.TrimSpace(r.Name) == ""
	})
	return ordered[:min(len(ordered), maxRelations)]
}

type descriptorSet struct {
	words []string
	seen  map[string]bool
}

func (s *descriptorSet) add(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	key := keyword.Fold(word)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.words = append(s.words, word)
}

// addTitle adds a backstory title and each of its words.
func (s *descriptorSet) addTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	s.add(title)
	for _, word := range titleWord.FindAllString(title, -1) {
		s.add(word)
	}
}
