// Package parsing derives season numbers, round numbers, content
// classification, dedupe keys, and normalized-text hashes from free-text
// video titles and descriptions.
//
// All functions are pure; the pipeline calls them at discovery and
// enrichment time and persists the results. Season markers use the Korean
// counter "기", rounds use "EP"/"E"/"화"/"회", and part numbers within a
// round use "부". Dedupe keys collapse duplicate discoveries of the same
// broadcast unit: exact season+round when the round is known, otherwise a
// coarse season+date+normalized-title key.
package parsing
