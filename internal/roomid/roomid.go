// Package roomid normalizes user-entered stream identifiers.
//
// Room IDs use a Crockford-style base32 alphabet with the ambiguous
// letters I, L, O and U removed. Normalization case-folds, substitutes
// the ambiguous letters for the digit they are usually mistaken for,
// and silently drops anything else.
package roomid

import "strings"

// Alphabet is the set of characters a normalized room ID may contain.
const Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// Normalize rewrites raw user input into a valid room ID. The returned
// notice is non-empty only for the first substituted character, so a
// user typing a full ID with several typos sees a single correction
// hint instead of one per keystroke.
func Normalize(raw string) (id string, notice string) {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.ToUpper(raw) {
		switch r {
		case 'I', 'L':
			b.WriteByte('1')
			if notice == "" {
				notice = string(r) + " is not valid, did you mean 1?"
			}
		case 'O':
			b.WriteByte('0')
			if notice == "" {
				notice = "O is not valid, did you mean 0?"
			}
		case 'U':
			b.WriteByte('V')
			if notice == "" {
				notice = "U is not valid, did you mean V?"
			}
		default:
			if strings.ContainsRune(Alphabet, r) {
				b.WriteRune(r)
			}
		}
	}

	return b.String(), notice
}

// Valid reports whether id is already a normalized room ID.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
