// Package keyword extracts weighted keywords from mixed Han and Latin text.
//
// Extraction runs in four steps: Segment produces raw terms with occurrence
// weights, exclusion removes any term embedded in a caller-supplied descriptor,
// stop-word rules drop fillers, and the survivors are scored by
//
//	lengthWeight * cohesionFactor * sqrt(weight + 0.1)
//
// where lengthWeight depends on script and length, and cohesionFactor rewards
// terms whose 2..3 rune substrings are themselves candidates.
package keyword
