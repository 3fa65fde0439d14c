// Package qa holds the deterministic parts of question resolution: turning a
// question into search tokens, ranking knowledge-base candidates, and
// rendering a matched answer into a fixed-section text.
//
// Nothing in this package performs I/O. Identical inputs always produce
// identical outputs.
package qa
