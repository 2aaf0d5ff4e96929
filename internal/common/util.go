package common

import "unicode/utf8"

// WipeByteArray overwrites the contents of b with zeros. It is used to drop
// passwords from memory once they have been sent.
//
// A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Truncate shortens s to at most max bytes, marking the cut with "...".
// Server error bodies are surfaced through it so a misbehaving server
// cannot flood the terminal. The cut never splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max < 0 || len(s) <= max {
		return s
	}

	marker := "..."
	if max <= len(marker) {
		marker = ""
	} else {
		max -= len(marker)
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + marker
}
