package extract

import (
	"regexp"
	"strings"
)

// identifierPattern finds identifier-shaped tokens inside free text.
var identifierPattern = regexp.MustCompile(`(?i)\b([SAJKBRE])[.\-]?(\d{1,5})([A-Z])?\b`)

var wordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z'\-]*`)

// MaxKeywords is how many content words a keyword search is built from.
const MaxKeywords = 3

var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {}, "also": {},
	"any": {}, "anything": {}, "are": {}, "been": {}, "before": {}, "being": {},
	"bill": {}, "bills": {}, "both": {}, "could": {}, "does": {}, "doing": {},
	"during": {}, "each": {}, "explain": {}, "find": {}, "from": {}, "give": {},
	"have": {}, "having": {}, "help": {}, "here": {}, "into": {}, "just": {},
	"know": {}, "legislation": {}, "like": {}, "list": {}, "look": {}, "looking": {},
	"many": {}, "more": {}, "most": {}, "much": {}, "need": {}, "other": {},
	"over": {}, "please": {}, "show": {}, "some": {}, "something": {}, "such": {},
	"summarize": {}, "summary": {}, "tell": {}, "than": {}, "that": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"those": {}, "through": {}, "under": {}, "until": {}, "very": {}, "want": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"with": {}, "would": {}, "your": {},
}

// Identifiers returns the normalized, de-duplicated identifier-shaped tokens
// found in text, in order of first appearance.
func Identifiers(text string) []string {
	matches := identifierPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := Normalize(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Keywords returns up to MaxKeywords lowercase content words longer than
// three characters, with stopwords removed, in order of appearance.
func Keywords(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(text, -1) {
		w = strings.ToLower(strings.Trim(w, "'-"))
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
