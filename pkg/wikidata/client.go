package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"depictsgo/pkg/cache"
	"depictsgo/pkg/request"
)

const defaultAPIEndpoint = "https://www.wikidata.org/w/api.php"

// Wikidata allows max 50 IDs per wbgetentities request.
const batchSize = 50

// Client fetches entities from the Wikidata API.
type Client struct {
	request     *request.Client
	cache       *cache.Cache
	APIEndpoint string
	Logger      *slog.Logger
}

// NewClient creates a new Wikidata entity client.
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

func (c *Client) apiCall(ctx context.Context, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid api endpoint: %w", err)
	}

	q := u.Query()
	q.Set("format", "json")
	q.Set("formatversion", "2")
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return c.request.Get(ctx, u.String())
}

type entitiesResponse struct {
	Entities map[string]Entity `json:"entities"`
}

// GetEntity fetches a single entity. A "missing" report from the API is a
// valid absence and returns (nil, nil); transport and parse failures return
// an error.
func (c *Client) GetEntity(ctx context.Context, qid string) (*Entity, error) {
	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("ids", qid)

	body, err := c.apiCall(ctx, params)
	if err != nil {
		return nil, err
	}

	var result entitiesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	ent, ok := result.Entities[qid]
	if !ok || ent.Missing {
		return nil, nil
	}
	return &ent, nil
}

// GetEntityCached is GetEntity behind the fingerprint cache, keyed by QID.
func (c *Client) GetEntityCached(ctx context.Context, qid string) (*Entity, error) {
	payload, err := c.cache.GetOrCompute(qid, qid, func() (json.RawMessage, error) {
		ent, err := c.GetEntity(ctx, qid)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ent)
	})
	if err != nil {
		return nil, err
	}

	var ent *Entity
	if err := json.Unmarshal(payload, &ent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return ent, nil
}

// GetEntities fetches a batch of entities in chunks of 50. A failed chunk
// fails the whole call; chunks are never partially retried. The ids are
// sorted first so repeated calls produce a stable request sequence.
func (c *Client) GetEntities(ctx context.Context, ids []string, props string) ([]Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sorted := sortQIDs(ids)

	var entities []Entity
	for i := 0; i < len(sorted); i += batchSize {
		end := i + batchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := sorted[i:end]

		params := url.Values{}
		params.Set("action", "wbgetentities")
		params.Set("ids", strings.Join(chunk, "|"))
		if props != "" {
			params.Set("props", props)
		}

		body, err := c.apiCall(ctx, params)
		if err != nil {
			return nil, err
		}

		var result entitiesResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		// Preserve chunk order; map iteration is random.
		for _, qid := range chunk {
			if ent, ok := result.Entities[qid]; ok && !ent.Missing {
				entities = append(entities, ent)
			}
		}
	}

	return entities, nil
}

// GetLabels resolves English labels for a set of entity/property ids, behind
// the fingerprint cache. name overrides the cache key; when empty the key is
// derived from the sorted ids.
func (c *Client) GetLabels(ctx context.Context, ids []string, name string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	sorted := sortQIDs(ids)
	joined := strings.Join(sorted, "_")
	if name == "" {
		name = cache.MD5Key(joined)
	}

	payload, err := c.cache.GetOrCompute(name+"_labels", joined, func() (json.RawMessage, error) {
		entities, err := c.GetEntities(ctx, sorted, "labels")
		if err != nil {
			return nil, err
		}
		return json.Marshal(entities)
	})
	if err != nil {
		return nil, err
	}

	var entities []Entity
	if err := json.Unmarshal(payload, &entities); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	labels := make(map[string]string, len(entities))
	for i := range entities {
		if en, ok := entities[i].Labels["en"]; ok {
			labels[entities[i].ID] = en.Value
		}
	}
	return labels, nil
}

// sortQIDs orders ids numerically (Q7 before Q96) with property ids and
// malformed ids after, lexically.
func sortQIDs(ids []string) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		a, errA := ParseQID(sorted[i])
		b, errB := ParseQID(sorted[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if errA == nil {
			return true
		}
		if errB == nil {
			return false
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
