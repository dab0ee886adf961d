package retrieval

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lorekeep/core"
)

// keywordsPerGroup caps the keywords listed for one length group.
const keywordsPerGroup = 20

// Render formats fired entries as a numbered digest, one "[tag] content"
// line per entry. Returns "" when nothing fired.
func Render(fired []core.KnowledgeScore) string {
	if len(fired) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, ks := range fired {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, ks.Entry.Tag, ks.Entry.Content)
	}
	return sb.String()
}

// RenderTrace formats a score breakdown for each detail. Unless showAll is
// set, details scoring below threshold are left out.
func RenderTrace(trace []*core.ScoreDetail, threshold float64, showAll bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Threshold: %.2f\n\n", threshold)

	shown := 0
	for _, d := range trace {
		passed := d.TotalScore >= threshold
		if !showAll && !passed {
			continue
		}
		shown++
		mark := "FAIL"
		if d.Fired {
			mark = "FIRED"
		} else if passed {
			mark = "PASS"
		}

		fmt.Fprintf(&sb, "[%d] %s total=%.3f source=%s\n", shown, mark, d.TotalScore, d.Source)
		fmt.Fprintf(&sb, "    tag: %s | content: %s\n", d.Entry.Tag, truncate(d.Entry.Content, 80))
		fmt.Fprintf(&sb, "    importance: %.3f\n", d.ImportanceScore)
		fmt.Fprintf(&sb, "    tag score: %.3f (%s)\n", d.TagScore, strings.Join(d.MatchedTags, ", "))
		fmt.Fprintf(&sb, "    keywords: %d matched%s\n", d.KeywordMatchCount, preview(d.MatchedKeywords, 3))
		fmt.Fprintf(&sb, "    exact match: %.3f\n", d.JaccardScore)
		if d.Source == core.SourceVector {
			dup := ""
			if d.Duplicate {
				dup = " duplicate"
			}
			fmt.Fprintf(&sb, "    similarity: %.4f%s\n", d.Similarity, dup)
		}
		fmt.Fprintf(&sb, "    status: %s\n\n", d.FailReason)
	}
	if shown == 0 {
		sb.WriteString("No entries to show\n")
	}
	return sb.String()
}

// RenderKeywordGroups lists keywords grouped by length in runes, longest
// first. Each group shows up to 20 keywords in sorted order.
func RenderKeywordGroups(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	groups := make(map[int][]string)
	for _, kw := range keywords {
		n := utf8.RuneCountInString(kw)
		groups[n] = append(groups[n], kw)
	}
	lengths := make([]int, 0, len(groups))
	for n := range groups {
		lengths = append(lengths, n)
	}
	slices.SortFunc(lengths, func(a, b int) int { return cmp.Compare(b, a) })

	var sb strings.Builder
	for _, n := range lengths {
		group := groups[n]
		slices.Sort(group)
		fmt.Fprintf(&sb, "%d-rune keywords (%d):\n", n, len(group))
		shown := group[:min(len(group), keywordsPerGroup)]
		sb.WriteString("  " + strings.Join(shown, ", ") + "\n")
		if extra := len(group) - len(shown); extra > 0 {
			fmt.Fprintf(&sb, "  ... %d more\n", extra)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func preview(words []string, n int) string {
	if len(words) == 0 {
		return ""
	}
	top := words[:min(len(words), n)]
	more := ""
	if len(words) > n {
		more = fmt.Sprintf(" ...(%d more)", len(words)-n)
	}
	return fmt.Sprintf(" (%s%s)", strings.Join(top, ", "), more)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
