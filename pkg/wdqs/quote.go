package wdqs

import (
	"fmt"
	"strings"
)

// QuoteList renders strings as a SPARQL VALUES list of quoted literals,
// deduplicated preserving first-seen order. Intended for ad-hoc queries
// built outside the template set, such as looking up items by a batch of
// commons filenames or titles.
func QuoteList(items []string) string {
	var parts []string
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		escaped := strings.ReplaceAll(s, `"`, `\"`)
		parts = append(parts, `("`+escaped+`")`)
	}
	return strings.Join(parts, " ")
}

// URLList renders URLs as a SPARQL VALUES list of IRIs, deduplicated
// preserving first-seen order. The IRI counterpart of QuoteList, for
// queries pinned to a set of catalog or entity URLs.
func URLList(urls []string) string {
	var parts []string
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		parts = append(parts, fmt.Sprintf("(<%s>)", u))
	}
	return strings.Join(parts, " ")
}
