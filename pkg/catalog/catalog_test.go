package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depictsgo/pkg/request"
	"depictsgo/pkg/tracker"
	"depictsgo/pkg/wikidata"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>The Hay Wain | National Gallery</title>
<meta name="description" content="An 1821 painting by John Constable.">
<meta property="og:description" content="Constable's famous Suffolk landscape.">
<meta property="og:site_name" content="The National Gallery">
<meta name="keywords" content="landscape, cart, river">
</head>
<body><p>ignored</p></body>
</html>`

func TestParsePage(t *testing.T) {
	p, err := parsePage([]byte(samplePage))
	require.NoError(t, err)
	assert.Equal(t, "The Hay Wain | National Gallery", p.title)
	assert.Equal(t, "Constable's famous Suffolk landscape.", p.description())
	assert.Equal(t, []string{"landscape", "cart", "river"}, p.keywords())
}

func TestParsePageDescriptionFallback(t *testing.T) {
	p, err := parsePage([]byte(`<html><head><meta name="description" content="plain desc"></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "plain desc", p.description())
	assert.Nil(t, p.keywords())
}

func TestParsePageMalformed(t *testing.T) {
	// The parser recovers from broken markup
	p, err := parsePage([]byte(`<head><meta name="description" content="x"><p>unclosed`))
	require.NoError(t, err)
	assert.Equal(t, "x", p.description())
}

func stringClaim(value string) wikidata.Claim {
	raw, _ := json.Marshal(value)
	return wikidata.Claim{
		Mainsnak: wikidata.Snak{
			SnakType:  "value",
			DataValue: &wikidata.DataValue{Type: "string", Value: raw},
		},
	}
}

func TestCandidateURLs(t *testing.T) {
	e := &wikidata.Entity{
		ID: "Q1",
		Claims: map[string][]wikidata.Claim{
			"P973":  {stringClaim("https://www.dia.org/art/collection/object/42")},
			"P4704": {stringClaim("1986.65.98")},
			"P31":   {stringClaim("ignored")},
		},
	}

	urls := candidateURLs(e)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://www.dia.org/art/collection/object/42", urls[0])
	assert.Equal(t, "https://americanart.si.edu/artwork/1986.65.98", urls[1])
}

func TestCandidateURLsNovalue(t *testing.T) {
	e := &wikidata.Entity{
		ID: "Q1",
		Claims: map[string][]wikidata.Claim{
			"P973": {{Mainsnak: wikidata.Snak{SnakType: "novalue"}}},
		},
	}
	assert.Empty(t, candidateURLs(e))
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	r := request.New(tracker.New(), 5*time.Second, "test-agent")
	return NewService(r, 3*time.Second, nil), srv
}

func TestLookup(t *testing.T) {
	s, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	})

	e := &wikidata.Entity{
		ID: "Q1",
		Claims: map[string][]wikidata.Claim{
			"P973": {stringClaim(srv.URL + "/artwork/1")},
		},
	}

	info := s.Lookup(context.Background(), e)
	require.NotNil(t, info)
	assert.Equal(t, "The National Gallery", info.Institution)
	assert.Equal(t, "Constable's famous Suffolk landscape.", info.Description)
	assert.Equal(t, srv.URL+"/artwork/1", info.URL)
}

func TestLookupFailureSwallowed(t *testing.T) {
	s, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	e := &wikidata.Entity{
		ID: "Q1",
		Claims: map[string][]wikidata.Claim{
			"P973": {stringClaim(srv.URL + "/artwork/1")},
		},
	}

	assert.Nil(t, s.Lookup(context.Background(), e))
}

func TestLookupNilEntity(t *testing.T) {
	r := request.New(tracker.New(), time.Second, "test-agent")
	s := NewService(r, time.Second, nil)
	assert.Nil(t, s.Lookup(context.Background(), nil))
}

func TestResolverMatch(t *testing.T) {
	assert.True(t, (&diaResolver{}).Match("https://www.dia.org/art/collection/object/42"))
	assert.False(t, (&diaResolver{}).Match("https://www.rijksmuseum.nl/en/collection/SK-C-5"))
	assert.True(t, (&rijksmuseumResolver{}).Match("https://www.rijksmuseum.nl/en/collection/SK-C-5"))
	assert.True(t, (&saamResolver{}).Match("https://americanart.si.edu/artwork/1"))
	assert.True(t, (&htmlResolver{}).Match("https://example.org/page"))
	assert.False(t, (&htmlResolver{}).Match("ftp://example.org/page"))
}
