package commons

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"depictsgo/pkg/cache"
	"depictsgo/pkg/request"
)

const (
	defaultAPIEndpoint = "https://commons.wikimedia.org/w/api.php"
	filePathPrefix     = "http://commons.wikimedia.org/wiki/Special:FilePath/"
)

// The API rejects more than 50 titles per imageinfo request.
const batchSize = 50

// Image holds URL and dimension metadata for one Commons file.
type Image struct {
	URL      string `json:"url"`
	ThumbURL string `json:"thumburl,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Client resolves Commons filenames to image metadata.
type Client struct {
	request     *request.Client
	cache       *cache.Cache
	APIEndpoint string
	Logger      *slog.Logger
}

// NewClient creates a new Commons client.
func NewClient(r *request.Client, c *cache.Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		request:     r,
		cache:       c,
		APIEndpoint: defaultAPIEndpoint,
		Logger:      logger,
	}
}

// URIToFilename converts a Special:FilePath URI from a query result into the
// plain filename, percent-decoded.
func URIToFilename(uri string) (string, error) {
	if !strings.HasPrefix(uri, filePathPrefix) {
		return "", fmt.Errorf("not a commons file path URI: %q", uri)
	}
	name, err := url.PathUnescape(uri[len(filePathPrefix):])
	if err != nil {
		return "", fmt.Errorf("undecodable file path URI %q: %w", uri, err)
	}
	return name, nil
}

type imageInfoResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing,omitempty"`
			ImageInfo []struct {
				URL      string `json:"url"`
				ThumbURL string `json:"thumburl"`
				Width    int    `json:"width"`
				Height   int    `json:"height"`
			} `json:"imageinfo,omitempty"`
		} `json:"pages"`
	} `json:"query"`
}

// ImageDetail resolves filenames to image metadata in chunks of 50.
// A file the API cannot resolve maps to a nil entry rather than an error:
// referenced files are routinely renamed or deleted upstream. Duplicate
// filenames are tolerated.
func (c *Client) ImageDetail(ctx context.Context, filenames []string, thumbWidth, thumbHeight int) (map[string]*Image, error) {
	images := make(map[string]*Image)
	if len(filenames) == 0 {
		return images, nil
	}

	// Dedup preserving first-seen order.
	seen := make(map[string]struct{}, len(filenames))
	unique := make([]string, 0, len(filenames))
	for _, f := range filenames {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		unique = append(unique, f)
		images[f] = nil
	}

	for i := 0; i < len(unique); i += batchSize {
		end := i + batchSize
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[i:end]

		titles := make([]string, len(chunk))
		for j, f := range chunk {
			titles[j] = "File:" + f
		}

		u, err := url.Parse(c.APIEndpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid api endpoint: %w", err)
		}
		q := u.Query()
		q.Set("action", "query")
		q.Set("format", "json")
		q.Set("formatversion", "2")
		q.Set("titles", strings.Join(titles, "|"))
		q.Set("prop", "imageinfo")
		q.Set("iiprop", "url|size")
		if thumbWidth > 0 {
			q.Set("iiurlwidth", fmt.Sprintf("%d", thumbWidth))
		}
		if thumbHeight > 0 {
			q.Set("iiurlheight", fmt.Sprintf("%d", thumbHeight))
		}
		u.RawQuery = q.Encode()

		body, err := c.request.Get(ctx, u.String())
		if err != nil {
			return nil, err
		}

		var result imageInfoResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}

		for _, page := range result.Query.Pages {
			filename := strings.TrimPrefix(page.Title, "File:")
			if page.Missing || len(page.ImageInfo) == 0 {
				c.Logger.Debug("no imageinfo for file", "filename", filename)
				continue
			}
			info := page.ImageInfo[0]
			images[filename] = &Image{
				URL:      info.URL,
				ThumbURL: info.ThumbURL,
				Width:    info.Width,
				Height:   info.Height,
			}
		}
	}

	return images, nil
}

// ImageDetailCached is ImageDetail behind the fingerprint cache under an
// explicit name, so a page of thumbnails is fetched once per item set.
func (c *Client) ImageDetailCached(ctx context.Context, name string, filenames []string, thumbWidth, thumbHeight int) (map[string]*Image, error) {
	sourceKey := strings.Join(filenames, "|")

	payload, err := c.cache.GetOrCompute(name, sourceKey, func() (json.RawMessage, error) {
		detail, err := c.ImageDetail(ctx, filenames, thumbWidth, thumbHeight)
		if err != nil {
			return nil, err
		}
		return json.Marshal(detail)
	})
	if err != nil {
		return nil, err
	}

	var detail map[string]*Image
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode cached image detail: %w", err)
	}
	return detail, nil
}
