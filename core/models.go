package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// MatchMode controls how an entry's tag set is evaluated against match text.
type MatchMode int

const (
	// MatchAny matches when at least one non-blank tag is present.
	MatchAny MatchMode = iota
	// MatchAll matches only when every non-blank tag is present.
	MatchAll
)

// String returns the lowercase name of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	default:
		return "any"
	}
}

// ParseMatchMode converts "any" or "all" (case-insensitive) to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return MatchAny, nil
	case "all":
		return MatchAll, nil
	default:
		return MatchAny, ErrInvalidMatchMode
	}
}

// Entry is a single knowledge snippet in the library.
// The ID is immutable once the entry is stored.
type Entry struct {
	ID            string
	Tag           string    // Short label, also the source of Tags when Tags is empty
	Content       string    // Free text rendered into the digest
	Importance    float64   // Additive weight in every scoring path
	Enabled       bool      // Disabled entries never fire
	TargetActorID string    // Restricts the entry to a single speaker when set
	Tags          []string  // Lexical match set
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MatchTags returns the tags used for lexical matching.
// Falls back to parsing the Tag label when Tags is empty.
func (e *Entry) MatchTags() []string {
	if len(e.Tags) > 0 {
		return e.Tags
	}
	return ParseTags(e.Tag)
}

// RestrictedFrom reports whether the entry is limited to a different speaker.
func (e *Entry) RestrictedFrom(speakerID string) bool {
	return e.TargetActorID != "" && e.TargetActorID != speakerID
}

// ExtendedFlags holds per-entry behavior flags kept outside the entry record.
type ExtendedFlags struct {
	CanBeExtracted bool // Content may seed the next chaining round
	CanBeMatched   bool // Entry may be reached by a chaining round
	MatchMode      MatchMode
}

// DefaultFlags returns the flags assumed for an entry that has none stored.
func DefaultFlags() ExtendedFlags {
	return ExtendedFlags{MatchMode: MatchAny}
}

// KeywordCandidate is a weighted term produced by keyword extraction.
type KeywordCandidate struct {
	Word   string
	Weight float64
	Score  float64
}

// Source identifies which retrieval path produced a score.
type Source int

const (
	SourceLexical Source = iota
	SourceKeyword
	SourceVector
)

func (s Source) String() string {
	switch s {
	case SourceKeyword:
		return "keyword"
	case SourceVector:
		return "vector"
	default:
		return "lexical"
	}
}

// ScoreDetail explains how a single entry was scored during one retrieval call.
type ScoreDetail struct {
	Entry             *Entry
	Enabled           bool
	TotalScore        float64
	ImportanceScore   float64
	TagScore          float64
	KeywordMatchCount int
	MatchedKeywords   []string
	MatchedTags       []string
	JaccardScore      float64
	Source            Source
	Similarity        float64 // Raw cosine similarity, vector path only
	Duplicate         bool    // Vector candidate already found lexically
	Fired             bool
	FailReason        string
}

// AppendReason adds a diagnostic note without discarding earlier ones.
func (d *ScoreDetail) AppendReason(reason string) {
	if reason == "" {
		return
	}
	if d.FailReason == "" {
		d.FailReason = reason
		return
	}
	d.FailReason += reason
}

// AddNote appends note to the reason, separated by "; ".
func (d *ScoreDetail) AddNote(note string) {
	if note == "" {
		return
	}
	if d.FailReason == "" {
		d.FailReason = note
		return
	}
	d.FailReason += "; " + note
}

// KnowledgeScore pairs an accepted entry with its final score.
type KnowledgeScore struct {
	Entry *Entry
	Score float64
}

// VectorRecord is the stored embedding for one entry.
type VectorRecord struct {
	ID          string
	Embedding   []float32
	ContentHash string
}

// VectorMatch is a single nearest-neighbor result.
type VectorMatch struct {
	ID         string
	Similarity float64
}

// ContentHash returns a hex encoded BLAKE2b digest of text.
// Identical content always produces identical hashes.
func ContentHash(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// tagSeparators are the delimiters accepted in a tag label.
const tagSeparators = ",，;；|、"

// ParseTags splits a tag label into individual tags.
// Blank tags and case-insensitive duplicates are dropped.
func ParseTags(label string) []string {
	parts := strings.FieldsFunc(label, func(r rune) bool {
		return strings.ContainsRune(tagSeparators, r)
	})
	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}

// VectorSnapshot is the persisted form of a vector index: three parallel
// lists of equal length. Each embedding is a comma-joined list of numbers,
// empty when the entry has no vector.
type VectorSnapshot struct {
	IDs        []string
	Embeddings []string
	Hashes     []string
}

// Len returns the number of records, or -1 when the lists disagree.
func (s *VectorSnapshot) Len() int {
	if len(s.IDs) != len(s.Embeddings) || len(s.IDs) != len(s.Hashes) {
		return -1
	}
	return len(s.IDs)
}
