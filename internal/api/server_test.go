package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depictsgo/pkg/store"
	"depictsgo/pkg/tracker"
)

type fakeQueryLog struct {
	records []*store.QueryRecord
	err     error
}

func (f *fakeQueryLog) RecordQuery(_ context.Context, rec *store.QueryRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeQueryLog) RecentQueries(_ context.Context, limit int) ([]*store.QueryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

type fakeEditStore struct {
	edits []*store.Edit
}

func (f *fakeEditStore) SaveEdit(_ context.Context, edit *store.Edit) error {
	f.edits = append(f.edits, edit)
	return nil
}

func (f *fakeEditStore) EditsForArtwork(_ context.Context, artworkID int64) ([]*store.Edit, error) {
	var out []*store.Edit
	for _, e := range f.edits {
		if e.ArtworkID == artworkID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, queryLog store.QueryLogStore, edits store.EditStore) *httptest.Server {
	t.Helper()
	tr := tracker.New()
	tr.TrackCacheHit("wikidata")
	tr.TrackCacheMiss("wikidata")
	tr.TrackAPISuccess("wikidata")

	var editH *EditHandler
	if edits != nil {
		editH = NewEditHandler(edits)
	}
	srv := NewServer("localhost:0", NewBrowseHandler(nil), NewStatsHandler(tr, queryLog), editH, func() {})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/api/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["version"])
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	wd := body.Providers["wikidata"]
	assert.Equal(t, int64(1), wd.CacheHits)
	assert.Equal(t, int64(1), wd.APISuccess)
	assert.Equal(t, int64(50), wd.HitRate)
}

func TestQueries(t *testing.T) {
	log := &fakeQueryLog{records: []*store.QueryRecord{
		{
			ID:         "abc",
			Template:   "find_more",
			StatusCode: 200,
			RowCount:   7,
			StartTime:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC),
		},
	}}
	ts := newTestServer(t, log, nil)

	resp, err := http.Get(ts.URL + "/api/queries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []QueryRecordDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "find_more", body[0].Template)
	assert.Equal(t, int64(2000), body[0].DurationMS)
}

func TestQueriesNilStore(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/api/queries")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQueriesBadLimit(t *testing.T) {
	ts := newTestServer(t, &fakeQueryLog{}, nil)
	resp, err := http.Get(ts.URL + "/api/queries?limit=boom")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAndListEdits(t *testing.T) {
	edits := &fakeEditStore{}
	ts := newTestServer(t, nil, edits)

	payload := `{"artwork_qid": "Q12418", "depicts_qid": "Q302", "username": "curator"}`
	resp, err := http.Post(ts.URL+"/api/edits", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created editDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Q12418", created.ArtworkQID)
	assert.Equal(t, "Q302", created.DepictsQID)

	listResp, err := http.Get(ts.URL + "/api/item/Q12418/edits")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listed []editDTO
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Q302", listed[0].DepictsQID)
}

func TestCreateEditBadQID(t *testing.T) {
	ts := newTestServer(t, nil, &fakeEditStore{})
	resp, err := http.Post(ts.URL+"/api/edits", "application/json",
		strings.NewReader(`{"artwork_qid": "nope", "depicts_qid": "Q302"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
