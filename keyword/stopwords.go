package keyword

import "strings"

// builtinCJKStopWords are particles and fillers that poison short Han terms.
var builtinCJKStopWords = []string{
	"只", "个", "条", "名", "在", "了", "的", "这", "那",
	"届时", "正在", "直接", "出现", "就", "以", "等", "和", "或", "被",
}

// builtinStopWords are dropped when a term equals one of them.
var builtinStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "he": true, "she": true, "they": true,
	"we": true, "his": true, "her": true, "its": true, "were": true, "has": true,
}

// stopList is the compiled stop-word configuration for one Extractor.
type stopList struct {
	exact    map[string]bool // folded words dropped on equality
	contains []string        // folded words dropped from short Han terms on containment
	starts   []string
	ends     []string
}

func newStopList(cfg *Config) *stopList {
	s := &stopList{exact: make(map[string]bool, len(builtinStopWords)+len(cfg.StopWords))}
	for w := range builtinStopWords {
		s.exact[w] = true
	}
	for _, w := range builtinCJKStopWords {
		s.exact[w] = true
		s.contains = append(s.contains, w)
	}
	for _, w := range cfg.StopWords {
		f := Fold(strings.TrimSpace(w))
		if f == "" {
			continue
		}
		s.exact[f] = true
		if ContainsHan(f) {
			s.contains = append(s.contains, f)
		}
	}
	s.starts = foldAll(cfg.StartStopWords)
	s.ends = foldAll(cfg.EndStopWords)
	return s
}

// drops reports whether the folded term must be removed.
func (s *stopList) drops(folded string) bool {
	if s.exact[folded] {
		return true
	}
	if ContainsHan(folded) && len([]rune(folded)) <= 3 {
		for _, w := range s.contains {
			if strings.Contains(folded, w) {
				return true
			}
		}
	}
	for _, w := range s.starts {
		if strings.HasPrefix(folded, w) {
			return true
		}
	}
	for _, w := range s.ends {
		if strings.HasSuffix(folded, w) {
			return true
		}
	}
	return false
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := Fold(strings.TrimSpace(w)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
