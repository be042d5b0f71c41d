package wdqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"depictsgo/pkg/cache"
	"depictsgo/pkg/request"
	"depictsgo/pkg/store"
)

const defaultEndpoint = "https://query.wikidata.org/bigdata/namespace/wdq/sparql"

// The query service reports server-side timeouts inside a 500 body.
const timeoutMarker = "java.util.concurrent.TimeoutException"

// providerName labels query service activity in the usage tracker.
const providerName = "wdqs"

// TimeoutTracker counts server-side query timeouts. Satisfied by
// *tracker.Tracker.
type TimeoutTracker interface {
	TrackQueryTimeout(provider string)
}

// Client executes SPARQL queries against the Wikidata Query Service.
type Client struct {
	request  *request.Client
	cache    *cache.Cache
	queryLog store.QueryLogStore
	Endpoint string
	Logger   *slog.Logger
	Tracker  TimeoutTracker
}

// NewClient creates a new query service client. queryLog may be nil, in
// which case execution metadata is not recorded.
func NewClient(r *request.Client, c *cache.Cache, queryLog store.QueryLogStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		request:  r,
		cache:    c,
		queryLog: queryLog,
		Endpoint: defaultEndpoint,
		Logger:   logger,
	}
}

type queryResponse struct {
	Results struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
}

// RunQuery executes a query and returns its rows. Server-side timeouts are
// reported as a *QueryError with Timeout set (matched by errors.Is against
// ErrTimeout); other failures carry the raw response for diagnostics.
// Execution metadata is recorded best-effort for every invocation.
func (c *Client) RunQuery(ctx context.Context, query, template string) ([]Row, error) {
	form := url.Values{}
	form.Set("query", query)
	form.Set("format", "json")

	start := time.Now().UTC()
	body, err := c.request.PostForm(ctx, c.Endpoint, form)
	end := time.Now().UTC()

	if err != nil {
		qerr := classify(err, query, template)
		var qe *QueryError
		if c.Tracker != nil && errors.As(qerr, &qe) && qe.Timeout {
			c.Tracker.TrackQueryTimeout(providerName)
		}
		c.record(ctx, query, template, qerr, start, end, 0)
		return nil, qerr
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		perr := fmt.Errorf("failed to decode query response: %w", err)
		c.record(ctx, query, template, perr, start, end, 0)
		return nil, perr
	}

	rows := result.Results.Bindings
	c.record(ctx, query, template, nil, start, end, len(rows))
	return rows, nil
}

// RunQueryWithCache is RunQuery behind the fingerprint cache. name overrides
// the cache key; when empty the key is the md5 digest of the query text.
func (c *Client) RunQueryWithCache(ctx context.Context, query, name, template string) ([]Row, error) {
	if name == "" {
		name = cache.MD5Key(query)
	}

	payload, err := c.cache.GetOrCompute(name, query, func() (json.RawMessage, error) {
		rows, err := c.RunQuery(ctx, query, template)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode cached bindings: %w", err)
	}
	return rows, nil
}

// classify turns a transport error into a QueryError, detecting the
// server-side timeout marker in the response body.
func classify(err error, query, template string) error {
	var se *request.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("query request failed: %w", err)
	}
	return &QueryError{
		Query:      query,
		Template:   template,
		StatusCode: se.StatusCode,
		Body:       se.Body,
		Timeout:    strings.Contains(string(se.Body), timeoutMarker),
	}
}

// record writes execution metadata to the query log. Observability must not
// fail the primary operation, so errors here are only logged.
func (c *Client) record(ctx context.Context, query, template string, qerr error, start, end time.Time, rowCount int) {
	if c.queryLog == nil {
		return
	}

	rec := &store.QueryRecord{
		ID:        uuid.NewString(),
		Template:  template,
		QueryHash: cache.MD5Key(query),
		RowCount:  rowCount,
		StartTime: start,
		EndTime:   end,
	}
	if qerr != nil {
		rec.Error = qerr.Error()
		var qe *QueryError
		if errors.As(qerr, &qe) {
			rec.StatusCode = qe.StatusCode
			if qe.Timeout {
				rec.Error = "timeout"
			}
		}
	} else {
		rec.StatusCode = 200
	}

	if err := c.queryLog.RecordQuery(ctx, rec); err != nil {
		c.Logger.Error("failed to record query execution", "template", template, "error", err)
	}
}
