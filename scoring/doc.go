// Package scoring turns matched entries into explainable ScoreDetails.
//
// Tag-matched entries score a flat match bonus plus their importance.
// Keyword relevance adds a tag-overlap ratio, a capped keyword count and a
// Jaccard exact-match term. Accept ranks by total score with entry ID as the
// tie breaker and marks the details that clear the threshold as fired.
package scoring
