package wikidata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"depictsgo/pkg/cache"
	"depictsgo/pkg/request"
	"depictsgo/pkg/tracker"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	reqClient := request.New(tracker.New(), 5*time.Second, "")
	c := NewClient(reqClient, cache.New(cache.NewMemStore(), nil), nil)
	c.APIEndpoint = server.URL + "/w/api.php"
	return c, server
}

func TestGetEntity(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if action := r.URL.Query().Get("action"); action != "wbgetentities" {
			t.Errorf("action = %s", action)
		}
		fmt.Fprint(w, `{
			"entities": {
				"Q1028181": {
					"id": "Q1028181",
					"labels": {"en": {"language": "en", "value": "painting"}},
					"claims": {
						"P18": [
							{"mainsnak": {"snaktype": "value", "property": "P18",
								"datavalue": {"value": "La Gioconda.jpg", "type": "string"}}}
						]
					}
				}
			}
		}`)
	})

	ent, err := c.GetEntity(context.Background(), "Q1028181")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if ent == nil {
		t.Fatal("expected entity, got nil")
	}
	if ent.Labels["en"].Value != "painting" {
		t.Errorf("label = %q", ent.Labels["en"].Value)
	}

	dv := FirstDatavalue(ent, "P18")
	if dv == nil {
		t.Fatal("expected P18 datavalue")
	}
	if s, ok := dv.Str(); !ok || s != "La Gioconda.jpg" {
		t.Errorf("Str() = %q, %v", s, ok)
	}
	if FirstDatavalue(ent, "P170") != nil {
		t.Error("absent property must yield nil datavalue")
	}
}

func TestGetEntityMissing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"entities": {"Q999999999": {"id": "Q999999999", "missing": true}}}`)
	})

	ent, err := c.GetEntity(context.Background(), "Q999999999")
	if err != nil {
		t.Fatalf("missing entity must not be an error: %v", err)
	}
	if ent != nil {
		t.Errorf("missing entity must be absent, got %+v", ent)
	}
}

func TestGetEntitiesChunking(t *testing.T) {
	var calls int
	var batchSizes []int

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		ids := strings.Split(r.URL.Query().Get("ids"), "|")
		batchSizes = append(batchSizes, len(ids))

		entities := make([]string, 0, len(ids))
		for _, id := range ids {
			entities = append(entities, fmt.Sprintf(`%q: {"id": %q, "labels": {"en": {"language": "en", "value": "label %s"}}}`, id, id, id))
		}
		fmt.Fprintf(w, `{"entities": {%s}}`, strings.Join(entities, ","))
	})

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("Q%d", i+1)
	}

	entities, err := c.GetEntities(context.Background(), ids, "labels")
	if err != nil {
		t.Fatalf("GetEntities failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("API calls = %d, want ceil(120/50) = 3", calls)
	}
	for _, size := range batchSizes {
		if size > 50 {
			t.Errorf("batch size %d exceeds API limit of 50", size)
		}
	}
	if len(entities) != 120 {
		t.Errorf("entities = %d, want 120", len(entities))
	}
}

func TestGetLabelsCached(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"entities": {
			"Q5": {"id": "Q5", "labels": {"en": {"language": "en", "value": "human"}}},
			"Q42": {"id": "Q42", "labels": {"en": {"language": "en", "value": "Douglas Adams"}}}
		}}`)
	})

	labels, err := c.GetLabels(context.Background(), []string{"Q42", "Q5"}, "")
	if err != nil {
		t.Fatalf("GetLabels failed: %v", err)
	}
	if labels["Q5"] != "human" || labels["Q42"] != "Douglas Adams" {
		t.Errorf("labels = %v", labels)
	}

	// Second call with the same ids in a different order: pure cache hit.
	if _, err := c.GetLabels(context.Background(), []string{"Q5", "Q42"}, ""); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("API calls = %d, want 1 (second lookup served from cache)", calls)
	}
}

func TestGetEntityCachedHitsOnce(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"entities": {"Q1": {"id": "Q1", "labels": {"en": {"language": "en", "value": "universe"}}}}}`)
	})

	for i := 0; i < 2; i++ {
		ent, err := c.GetEntityCached(context.Background(), "Q1")
		if err != nil {
			t.Fatal(err)
		}
		if ent == nil || ent.Labels["en"].Value != "universe" {
			t.Errorf("iteration %d: entity = %+v", i, ent)
		}
	}
	if calls != 1 {
		t.Errorf("API calls = %d, want 1", calls)
	}
}
