package commons

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	reqClient := request.New(tracker.New(), 5*time.Second, "")
	c := NewClient(reqClient, cache.New(cache.NewMemStore(), nil), nil)
	c.APIEndpoint = server.URL + "/w/api.php"
	return c
}

func TestURIToFilename(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{
			uri:  "http://commons.wikimedia.org/wiki/Special:FilePath/La%20Gioconda.jpg",
			want: "La Gioconda.jpg",
		},
		{
			uri:  "http://commons.wikimedia.org/wiki/Special:FilePath/Plain.jpg",
			want: "Plain.jpg",
		},
		{
			uri:     "https://example.com/other.jpg",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		got, err := URIToFilename(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("URIToFilename(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("URIToFilename(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestImageDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query": {"pages": [
			{"title": "File:Found.jpg", "imageinfo": [
				{"url": "https://upload.example/Found.jpg",
				 "thumburl": "https://upload.example/300px-Found.jpg",
				 "width": 2000, "height": 1500}
			]},
			{"title": "File:Missing.jpg", "missing": true}
		]}}`)
	})

	detail, err := c.ImageDetail(context.Background(), []string{"Found.jpg", "Missing.jpg"}, 300, 0)
	if err != nil {
		t.Fatalf("ImageDetail failed: %v", err)
	}

	img, ok := detail["Found.jpg"]
	if !ok || img == nil {
		t.Fatal("expected metadata for Found.jpg")
	}
	if img.ThumbURL != "https://upload.example/300px-Found.jpg" || img.Width != 2000 {
		t.Errorf("image = %+v", img)
	}

	// A missing file maps to a nil entry, never an error.
	missing, ok := detail["Missing.jpg"]
	if !ok {
		t.Fatal("Missing.jpg must be present in the result map")
	}
	if missing != nil {
		t.Errorf("Missing.jpg = %+v, want nil", missing)
	}
}

func TestImageDetailChunking(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		titles := strings.Split(r.URL.Query().Get("titles"), "|")
		if len(titles) > 50 {
			t.Errorf("batch of %d titles exceeds API limit", len(titles))
		}
		pages := make([]string, 0, len(titles))
		for _, title := range titles {
			pages = append(pages, fmt.Sprintf(`{"title": %q, "imageinfo": [{"url": "u", "width": 1, "height": 1}]}`, title))
		}
		fmt.Fprintf(w, `{"query": {"pages": [%s]}}`, strings.Join(pages, ","))
	})

	filenames := make([]string, 70)
	for i := range filenames {
		filenames[i] = fmt.Sprintf("File %d.jpg", i)
	}

	detail, err := c.ImageDetail(context.Background(), filenames, 0, 0)
	if err != nil {
		t.Fatalf("ImageDetail failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("API calls = %d, want 2", calls)
	}
	if len(detail) != 70 {
		t.Errorf("detail entries = %d, want 70", len(detail))
	}
}

func TestImageDetailDuplicates(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		titles := strings.Split(r.URL.Query().Get("titles"), "|")
		if len(titles) != 1 {
			t.Errorf("expected dedup to a single title, got %v", titles)
		}
		fmt.Fprint(w, `{"query": {"pages": [{"title": "File:Same.jpg", "imageinfo": [{"url": "u", "width": 10, "height": 20}]}]}}`)
	})

	detail, err := c.ImageDetail(context.Background(), []string{"Same.jpg", "Same.jpg", "Same.jpg"}, 0, 0)
	if err != nil {
		t.Fatalf("duplicates must not error: %v", err)
	}
	if calls != 1 {
		t.Errorf("API calls = %d, want 1", calls)
	}
	if detail["Same.jpg"] == nil {
		t.Error("expected metadata for Same.jpg")
	}
}

func TestImageDetailCached(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"query": {"pages": [{"title": "File:A.jpg", "imageinfo": [{"url": "u", "width": 1, "height": 1}]}]}}`)
	})

	for i := 0; i < 2; i++ {
		detail, err := c.ImageDetailCached(context.Background(), "P170_Q1028181_45_images", []string{"A.jpg"}, 300, 0)
		if err != nil {
			t.Fatal(err)
		}
		if detail["A.jpg"] == nil {
			t.Error("expected metadata for A.jpg")
		}
	}
	if calls != 1 {
		t.Errorf("API calls = %d, want 1 (second page load cached)", calls)
	}
}
