package wdqs

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"depictsgo/pkg/cache"
)

const propDirectPrefix = "http://www.wikidata.org/prop/direct/"

// FacetValue is one suggested filter value for a property: how many of the
// currently matching artworks share it.
type FacetValue struct {
	QID   string `json:"qid"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Facets runs the grouping query over the artworks matching the pinned
// constraints and returns, per unpinned property, the most frequent
// co-occurring values. Lists are capped at limit entries, descending by
// count (ties keep response order); properties with no surviving values are
// omitted entirely.
func (c *Client) Facets(ctx context.Context, constraints []Constraint, facetProps []string, isaList []string, limit int) (map[string][]FacetValue, error) {
	query := BuildQuery(FacetQuery, constraints, facetProps, isaList)
	name := "facets_" + cache.MD5Key(query)

	rows, err := c.RunQueryWithCache(ctx, query, name, "facet")
	if err != nil {
		return nil, err
	}

	return parseFacetRows(rows, constraints, limit), nil
}

func parseFacetRows(rows []Row, constraints []Constraint, limit int) map[string][]FacetValue {
	pinned := make(map[string]struct{}, len(constraints))
	for _, c := range constraints {
		pinned[c.PID] = struct{}{}
	}

	facets := make(map[string][]FacetValue)
	order := make(map[string]int)

	for i, row := range rows {
		propURI := RowValue(row, "property")
		if !strings.HasPrefix(propURI, propDirectPrefix) {
			continue
		}
		pid := propURI[len(propDirectPrefix):]
		if _, ok := pinned[pid]; ok {
			continue
		}

		qid := QIDFromURI(RowValue(row, "value"))
		if qid == "" {
			continue
		}

		count, err := strconv.Atoi(RowValue(row, "count"))
		if err != nil {
			continue
		}

		key := pid + "/" + qid
		if _, ok := order[key]; ok {
			continue
		}
		order[key] = i

		facets[pid] = append(facets[pid], FacetValue{
			QID:   qid,
			Label: RowValue(row, "valueLabel"),
			Count: count,
		})
	}

	for pid, values := range facets {
		sort.SliceStable(values, func(i, j int) bool {
			return values[i].Count > values[j].Count
		})
		if limit > 0 && len(values) > limit {
			values = values[:limit]
		}
		facets[pid] = values
	}

	return facets
}
