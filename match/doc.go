// Package match finds candidate entries for a conversational context.
//
// TagMatcher implements tag matching in Any and All modes and the chaining
// loop, where the content of matched extractable entries becomes the match
// text of the next round. Entries that are not matchable by chaining remain
// eligible in the first round.
//
// MatchStrategy wraps a complete lexical pass. LexicalTags chains over tags
// and scores the selection with a flat match bonus. KeywordOverlap scores
// entries against extracted keywords and grows the keyword set from the
// content of the best-scoring extractable entries.
package match
