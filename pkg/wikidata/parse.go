package wikidata

import (
	"fmt"
	"strconv"
	"strings"
)

const entityURIPrefix = "http://www.wikidata.org/entity/Q"

// ParseQID parses "Q1028181" into its numeric id.
func ParseQID(qid string) (int64, error) {
	if !strings.HasPrefix(qid, "Q") {
		return 0, fmt.Errorf("%w: %q", ErrBadID, qid)
	}
	n, err := strconv.ParseInt(qid[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadID, qid)
	}
	return n, nil
}

// FormatQID renders a numeric item id as "Q1028181".
func FormatQID(id int64) string {
	return fmt.Sprintf("Q%d", id)
}

// ParsePID parses "P170" into its numeric id.
func ParsePID(pid string) (int64, error) {
	if !strings.HasPrefix(pid, "P") {
		return 0, fmt.Errorf("%w: %q", ErrBadID, pid)
	}
	n, err := strconv.ParseInt(pid[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadID, pid)
	}
	return n, nil
}

// ParseItemURI parses an entity URI such as
// "http://www.wikidata.org/entity/Q1028181" into its numeric id.
func ParseItemURI(uri string) (int64, error) {
	if !strings.HasPrefix(uri, entityURIPrefix) {
		return 0, fmt.Errorf("%w: %q", ErrBadID, uri)
	}
	n, err := strconv.ParseInt(uri[len(entityURIPrefix):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadID, uri)
	}
	return n, nil
}
