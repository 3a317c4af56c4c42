package artifacts

import "strings"

// MatchesLanguage reports whether a record tagged with lang satisfies the
// requested language. Matching is a case-insensitive prefix test, so "es"
// matches "es-ES". A record without a language always matches: the listing
// simply may not expose one.
func MatchesLanguage(lang, want string) bool {
	if lang == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(lang), strings.ToLower(want))
}
