package keyword

import (
	"cmp"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/lorekeep/core"
	"golang.org/x/text/unicode/norm"
)

const (
	minHanGram = 2
	maxHanGram = 6
)

// Segment splits mixed-script text into raw weighted terms.
//
// Contiguous Han runs yield every overlapping 2..6 rune n-gram. Other runs
// yield words made of letters, digits, '_' and inner '\'' or '-'. A term's
// weight is its occurrence count, counted case-insensitively with the first
// surface form kept. At most limit terms are returned, heaviest first.
func Segment(text string, limit int) []core.KeywordCandidate {
	if limit <= 0 || text == "" {
		return []core.KeywordCandidate{}
	}
	text = norm.NFKC.String(text)

	type bucket struct {
		word  string
		count int
		first int
	}
	buckets := make(map[string]*bucket)
	order := 0
	add := func(term string) {
		key := Fold(term)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{word: term, first: order}
			buckets[key] = b
			order++
		}
		b.count++
	}

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case IsHan(r):
			j := i
			for j < len(runes) && IsHan(runes[j]) {
				j++
			}
			run := runes[i:j]
			for n := minHanGram; n <= maxHanGram && n <= len(run); n++ {
				for k := 0; k+n <= len(run); k++ {
					add(string(run[k : k+n]))
				}
			}
			i = j
		case isWordRune(r):
			j := i
			for j < len(runes) && (isWordRune(runes[j]) || isJoiner(runes, j)) {
				j++
			}
			if word := string(runes[i:j]); utf8.RuneCountInString(word) >= 2 {
				add(word)
			}
			i = j
		default:
			i++
		}
	}

	out := make([]core.KeywordCandidate, 0, len(buckets))
	firsts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		out = append(out, core.KeywordCandidate{Word: b.word, Weight: float64(b.count)})
		firsts[b.word] = b.first
	}
	slices.SortFunc(out, func(a, b core.KeywordCandidate) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(utf8.RuneCountInString(b.Word), utf8.RuneCountInString(a.Word)); c != 0 {
			return c
		}
		return cmp.Compare(firsts[a.Word], firsts[b.Word])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// isWordRune reports whether r belongs to a non-Han word.
func isWordRune(r rune) bool {
	if IsHan(r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isJoiner reports whether runes[i] is an apostrophe or hyphen between two word runes.
func isJoiner(runes []rune, i int) bool {
	if runes[i] != '\'' && runes[i] != '-' {
		return false
	}
	return i > 0 && i+1 < len(runes) && isWordRune(runes[i-1]) && isWordRune(runes[i+1])
}
