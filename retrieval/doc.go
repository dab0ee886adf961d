// Package retrieval selects the knowledge entries relevant to a
// conversational context.
//
// A Retriever joins the context with the speaker and listener descriptors,
// runs the configured match.MatchStrategy, then optionally adds semantic
// matches from a vector.Index. Vector candidates are ranked by a composite
// of similarity and entry importance, and candidates already found
// lexically are kept out of the merge. Every candidate goes through the
// same acceptance threshold and entry limit. The result carries a rendered
// digest, the fired entries and a score trace for diagnostics.
package retrieval
