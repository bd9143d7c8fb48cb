// CLAUDE:SUMMARY Boundary-aware text splitter: newline > sentence > space > hard cut, exact round-trip.
// Package chunk splits long strings into sub-limit pieces at natural
// boundaries.
//
// Every consumer that must respect a maximum text length (rich text spans,
// oversized blocks) goes through Split. Pieces are cut, in priority order, at
// the last newline inside the limit window, else the last sentence boundary,
// else the last space, else hard at the limit. No whitespace is dropped:
// concatenating the returned pieces reproduces the input exactly.
package chunk

import "unicode"

// DefaultLimit is the maximum rune count per piece when the caller passes a
// non-positive limit. It matches the remote platform's rich text span cap.
const DefaultLimit = 2000

// Split cuts text into pieces of at most limit runes each.
//
// Returns nil for empty input. The concatenation of the returned pieces is
// byte-identical to text.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var pieces []string
	for len(runes) > limit {
		cut := cutPoint(runes, limit)
		pieces = append(pieces, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

// cutPoint returns the cut index (1..limit) for the next piece. The separator
// character stays at the end of the left piece so nothing is lost.
func cutPoint(runes []rune, limit int) int {
	// Last newline inside the window.
	for i := limit; i >= 1; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}

	// Last sentence boundary: terminator followed by a space, cut after the
	// space. A terminator sitting exactly on the window edge also counts.
	for i := limit; i >= 2; i-- {
		if isSentenceEnd(runes[i-2]) && unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	if isSentenceEnd(runes[limit-1]) {
		return limit
	}

	// Last space.
	for i := limit; i >= 1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	// Hard cut.
	return limit
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
