package retrieval

import "strings"

// Actor is a conversation participant as seen by retrieval.
type Actor struct {
	ID          string
	Descriptors []string
}

// text joins the non-blank descriptors with spaces.
func (a *Actor) text() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.Descriptors))
	for _, d := range a.Descriptors {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, " ")
}

// MatchText joins the context with the speaker and listener descriptors.
// The listener is left out when it adds nothing beyond the speaker.
func MatchText(context string, speaker, listener *Actor) string {
	parts := make([]string, 0, 3)
	if c := strings.TrimSpace(context); c != "" {
		parts = append(parts, c)
	}
	speakerText := speaker.text()
	if speakerText != "" {
		parts = append(parts, speakerText)
	}
	if listenerText := listener.text(); listenerText != "" && listenerText != speakerText {
		parts = append(parts, listenerText)
	}
	return strings.Join(parts, " ")
}

// descriptors returns the descriptor list that MatchText used.
func descriptors(speaker, listener *Actor) []string {
	var out []string
	if speaker != nil {
		out = append(out, speaker.Descriptors...)
	}
	if listenerText := listener.text(); listenerText != "" && listenerText != speaker.text() {
		out = append(out, listener.Descriptors...)
	}
	return out
}

// CleanContext collapses runs of whitespace for vector matching. The
// original text is returned if nothing is left after cleaning.
func CleanContext(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return text
	}
	return cleaned
}
