package wdqs

import (
	"fmt"
	"sort"
	"strings"
)

// Constraint is one pinned (property, value) pair, e.g. P170=Q1028181 for
// "artist: Rembrandt". Order is preserved in generated queries and keys.
type Constraint struct {
	PID string
	QID string
}

// String renders the constraint as "P170=Q1028181".
func (c Constraint) String() string {
	return c.PID + "=" + c.QID
}

// ConstraintsKey renders constraints as a stable cache key fragment,
// e.g. "P170_Q1028181_P136_Q134307".
func ConstraintsKey(constraints []Constraint) string {
	parts := make([]string, 0, len(constraints)*2)
	for _, c := range constraints {
		parts = append(parts, c.PID, c.QID)
	}
	return strings.Join(parts, "_")
}

// FindMoreQuery selects artworks matching the pinned constraints that have
// an image and no depicts statement yet. One row is produced per matching
// image/title/artist combination; rows are regrouped by the aggregator.
const FindMoreQuery = `
select ?item ?itemLabel ?image ?artist ?artistLabel ?title ?titleLang ?time ?timeprecision ?depictsList {
  SERVICE wikibase:label { bd:serviceParam wikibase:language "[AUTO_LANGUAGE],en". }
  VALUES ?isa { ISA_LIST }
  ?item wdt:P31 ?isa .
PARAMS
  ?item wdt:P18 ?image .
  OPTIONAL {
    ?item p:P571/psv:P571 ?timenode .
    ?timenode wikibase:timeValue ?time .
    ?timenode wikibase:timePrecision ?timeprecision .
  }
  OPTIONAL { ?item wdt:P1476 ?title . BIND(lang(?title) AS ?titleLang) }
  OPTIONAL { ?item wdt:P170 ?artist }
  OPTIONAL {
    SELECT ?item (GROUP_CONCAT(?depicts; separator=",") AS ?depictsList) {
      ?item wdt:P180 ?depicts
    } GROUP BY ?item
  }
}`

// FacetQuery counts co-occurring property values among the artworks matching
// the pinned constraints. Pinned properties are excluded via PROPERTY_LIST.
const FacetQuery = `
select ?property ?value ?valueLabel (count(distinct ?item) as ?count) {
  SERVICE wikibase:label { bd:serviceParam wikibase:language "[AUTO_LANGUAGE],en". }
  VALUES ?isa { ISA_LIST }
  ?item wdt:P31 ?isa .
PARAMS
  ?item wdt:P18 ?image .
  VALUES ?property { PROPERTY_LIST }
  ?item ?property ?value .
} group by ?property ?value ?valueLabel
order by desc(?count)`

// BuildQuery renders a query template by exact-token substitution:
// PARAMS becomes one graph-pattern line per constraint, ISA_LIST the artwork
// type allow-list, and PROPERTY_LIST the facet properties not already pinned
// by a constraint. Identifiers have been validated against the id pattern
// upstream; free text never reaches a template (see QuoteList).
func BuildQuery(tmpl string, constraints []Constraint, facetProps []string, isaList []string) string {
	var params strings.Builder
	pinned := make(map[string]struct{}, len(constraints))
	for _, c := range constraints {
		fmt.Fprintf(&params, "  ?item wdt:%s wd:%s .\n", c.PID, c.QID)
		pinned[c.PID] = struct{}{}
	}

	isa := make([]string, len(isaList))
	for i, qid := range isaList {
		isa[i] = "wd:" + qid
	}

	var props []string
	for _, pid := range facetProps {
		if _, ok := pinned[pid]; ok {
			continue
		}
		props = append(props, "wdt:"+pid)
	}
	sort.Strings(props)

	q := tmpl
	q = strings.Replace(q, "PARAMS\n", params.String(), 1)
	q = strings.Replace(q, "ISA_LIST", strings.Join(isa, " "), 1)
	q = strings.Replace(q, "PROPERTY_LIST", strings.Join(props, " "), 1)
	return q
}
