// Package bitap implements driven.ApproximateMatcher with the bitap
// (shift-or) approximate substring algorithm.
//
// Patterns longer than 32 runes are split into overlapping 32-rune
// chunks whose scores are averaged. A score is errors/len(pattern),
// plus a proximity penalty when location is not ignored. Matched runs
// are reported as inclusive rune ranges no shorter than MinMatchLength.
package bitap
