package wdqs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func facetRow(pid, qid, label string, count int) Row {
	return Row{
		"property":   {Value: "http://www.wikidata.org/prop/direct/" + pid},
		"value":      {Value: "http://www.wikidata.org/entity/" + qid},
		"valueLabel": {Value: label},
		"count":      {Value: fmt.Sprintf("%d", count)},
	}
}

func TestParseFacetRows(t *testing.T) {
	rows := []Row{
		facetRow("P136", "Q134307", "portrait", 12),
		facetRow("P136", "Q191163", "landscape art", 30),
		facetRow("P170", "Q1028181", "Rembrandt", 8),
		facetRow("P276", "Q812285", "Louvre", 4),
		// Duplicate value for the same property is ignored
		facetRow("P136", "Q134307", "portrait", 12),
		// Non-entity value is skipped
		{
			"property":   {Value: "http://www.wikidata.org/prop/direct/P136"},
			"value":      {Value: "literal value"},
			"valueLabel": {Value: "x"},
			"count":      {Value: "99"},
		},
	}

	facets := parseFacetRows(rows, []Constraint{{PID: "P170", QID: "Q1028181"}}, 15)

	// Pinned property excluded entirely
	_, ok := facets["P170"]
	assert.False(t, ok)

	require.Len(t, facets["P136"], 2)
	// Descending by count
	assert.Equal(t, "Q191163", facets["P136"][0].QID)
	assert.Equal(t, 30, facets["P136"][0].Count)
	assert.Equal(t, "portrait", facets["P136"][1].Label)

	require.Len(t, facets["P276"], 1)
	assert.Equal(t, "Louvre", facets["P276"][0].Label)
}

func TestParseFacetRowsLimit(t *testing.T) {
	var rows []Row
	for i := 0; i < 20; i++ {
		rows = append(rows, facetRow("P136", fmt.Sprintf("Q%d", i+1), fmt.Sprintf("genre %d", i), i+1))
	}

	facets := parseFacetRows(rows, nil, 15)
	require.Len(t, facets["P136"], 15)
	assert.Equal(t, 20, facets["P136"][0].Count)
	assert.Equal(t, 6, facets["P136"][14].Count)
}

func TestParseFacetRowsEmpty(t *testing.T) {
	facets := parseFacetRows(nil, nil, 15)
	assert.Empty(t, facets)
}

func TestFacets(t *testing.T) {
	rows := []Row{
		facetRow("P136", "Q134307", "portrait", 12),
	}
	payload, err := json.Marshal(map[string]any{
		"results": map[string]any{"bindings": rows},
	})
	require.NoError(t, err)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		q := r.FormValue("query")
		assert.Contains(t, q, "?item wdt:P170 wd:Q1028181 .")
		assert.NotContains(t, q, "wdt:P170 }")
		w.Write(payload)
	})

	facets, err := c.Facets(context.Background(),
		[]Constraint{{PID: "P170", QID: "Q1028181"}},
		[]string{"P136", "P170"},
		[]string{"Q3305213"}, 15)
	require.NoError(t, err)
	require.Len(t, facets["P136"], 1)
	assert.Equal(t, "portrait", facets["P136"][0].Label)
}
