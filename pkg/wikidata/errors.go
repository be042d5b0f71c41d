package wikidata

import "errors"

var (
	// ErrParse indicates a failure to parse an API response.
	ErrParse = errors.New("wikidata parse error")
	// ErrBadID indicates a malformed entity or item URI.
	ErrBadID = errors.New("wikidata malformed id")
)
