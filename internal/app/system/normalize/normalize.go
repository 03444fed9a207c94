// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
package normalize

import (
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding space and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Color canonicalizes a hex color ("#3366ff", "3366FF") to "#3366FF".
// Values that are not 3- or 6-digit hex colors are returned trimmed but
// otherwise unchanged, so named colors still round-trip.
func Color(s string) string {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 3 && len(hex) != 6 {
		return s
	}
	for _, r := range hex {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return s
		}
	}
	return "#" + strings.ToUpper(hex)
}

// IDs returns ids without repeats, keeping first-seen order. The result is
// never nil.
func IDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
