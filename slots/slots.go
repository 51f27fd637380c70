// Package slots maps concrete slot identifiers to their shared family
// keys and carries the static per-family display catalog.
package slots

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// One trailing suffix: versioned (_t3), revision (-v2, _v2, .v2, v2)
	// or plain numeric (-2).
	suffixRe = regexp.MustCompile(`(_t\d+|[-_.]?v\d+|-\d+)$`)
)

// Normalize reduces a concrete slot id to its family base key:
// lower-cased, whitespace stripped, and exactly one trailing
// version/target suffix removed.
func Normalize(id string) string {
	s := strings.ToLower(id)
	s = whitespaceRe.ReplaceAllString(s, "")
	return suffixRe.ReplaceAllString(s, "")
}

// SameFamily reports whether two slot ids share a family base key.
func SameFamily(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Legacy sheets spell some families without separators or with stray
// qualifiers. The prefix rules collapse those spellings onto the
// canonical keys; exact aliases win over prefixes.
var (
	exactAliases = map[string]string{
		"mainhomefront":  "main_home_front",
		"mainhomebanner": "main_home_banner",
		"mainhomepopup":  "main_home_popup",
		"mainhome":       "main_home",
	}
	prefixAliases = []struct{ prefix, canonical string }{
		{"interactive", "interactive"},
		{"funnelsearch", "funnel_search"},
		{"funneldomestic", "funnel_domestic"},
		{"funnelover", "funnel_oversea"},
		{"funneloversea", "funnel_oversea"},
		{"funneltraveler", "funnel_traveler"},
	}
)

// Canonical normalizes id and folds known alias spellings onto one
// canonical family key. The summary builder's section detection uses
// this; the allocator works on the caller-supplied family keys as-is.
func Canonical(id string) string {
	base := Normalize(id)
	if c, ok := exactAliases[base]; ok {
		return c
	}
	for _, a := range prefixAliases {
		if strings.HasPrefix(base, a.prefix) {
			return a.canonical
		}
	}
	return base
}
