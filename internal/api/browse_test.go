package api

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depictsgo/pkg/wdqs"
)

func TestParseConstraints(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/browse?p=P170&q=Q1028181&p=P136&q=Q134307", nil)
	constraints, err := parseConstraints(req)
	require.NoError(t, err)
	require.Len(t, constraints, 2)
	assert.Equal(t, wdqs.Constraint{PID: "P170", QID: "Q1028181"}, constraints[0])
	assert.Equal(t, wdqs.Constraint{PID: "P136", QID: "Q134307"}, constraints[1])
}

func TestParseConstraintsEmpty(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/browse", nil)
	constraints, err := parseConstraints(req)
	require.NoError(t, err)
	assert.Empty(t, constraints)
}

func TestParseConstraintsMismatch(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/browse?p=P170", nil)
	_, err := parseConstraints(req)
	assert.Error(t, err)
}

func TestParseConstraintsBadIDs(t *testing.T) {
	for _, rawQuery := range []string{
		"p=X170&q=Q1028181",
		"p=P170&q=1028181",
		"p=P170&q=Q10281.81",
		"p=P170%20UNION&q=Q1",
	} {
		req := httptest.NewRequest("GET", "/api/browse?"+rawQuery, nil)
		_, err := parseConstraints(req)
		assert.Error(t, err, "rawQuery %q", url.QueryEscape(rawQuery))
	}
}

func TestParsePage(t *testing.T) {
	page, err := parsePage(httptest.NewRequest("GET", "/api/browse", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	page, err = parsePage(httptest.NewRequest("GET", "/api/browse?page=2", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	for _, rawQuery := range []string{"page=0", "page=-1", "page=abc", "page=1.5"} {
		_, err := parsePage(httptest.NewRequest("GET", "/api/browse?"+rawQuery, nil))
		assert.Error(t, err, "rawQuery %q", rawQuery)
	}
}

func TestWriteQueryFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeQueryFailure(rec, &wdqs.QueryError{Timeout: true, StatusCode: 500})
	assert.Equal(t, 504, rec.Code)
	assert.Contains(t, rec.Body.String(), "narrow the query")

	rec = httptest.NewRecorder()
	writeQueryFailure(rec, errors.New("connection refused"))
	assert.Equal(t, 502, rec.Code)
}
