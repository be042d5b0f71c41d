package wdqs

import (
	"strings"

	"depictsgo/pkg/wikidata"
)

// Binding is one variable's value within one result row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	XMLLang  string `json:"xml:lang,omitempty"`
	DataType string `json:"datatype,omitempty"`
}

// Row is one result row: a mapping from variable name to binding. Fields are
// routinely absent; use the accessors below rather than indexing directly.
type Row map[string]Binding

// RowID parses the numeric item id from the row's "item" binding URI.
func RowID(row Row) (int64, error) {
	return wikidata.ParseItemURI(row["item"].Value)
}

// RowValue returns the binding value for field, or "" when absent.
func RowValue(row Row, field string) string {
	if b, ok := row[field]; ok {
		return b.Value
	}
	return ""
}

// RowText returns the binding value only when it carries a language tag.
func RowText(row Row, field string) string {
	if b, ok := row[field]; ok && b.XMLLang != "" {
		return b.Value
	}
	return ""
}

// RowLang returns the language tag of the binding for field, or "".
func RowLang(row Row, field string) string {
	if b, ok := row[field]; ok {
		return b.XMLLang
	}
	return ""
}

const entityPrefix = "http://www.wikidata.org/entity/"

// QIDFromURI strips the entity URI prefix, returning "" for foreign URIs.
func QIDFromURI(uri string) string {
	if !strings.HasPrefix(uri, entityPrefix) {
		return ""
	}
	return uri[len(entityPrefix):]
}
