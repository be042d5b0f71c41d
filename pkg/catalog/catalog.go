package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"depictsgo/pkg/request"
	"depictsgo/pkg/wikidata"
)

// Info is what a museum's own page tells us about an artwork. Everything in
// here is enrichment; callers must cope with a nil Info.
type Info struct {
	Institution string   `json:"institution"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	URL         string   `json:"url"`
}

// Resolver extracts artwork details from one institution's pages.
type Resolver interface {
	Name() string
	Match(url string) bool
	Resolve(ctx context.Context, url string) (*Info, error)
}

// catalogProperties maps catalog-ID properties to URL templates. Entities
// often carry only the bare identifier; the template rebuilds the page URL.
var catalogProperties = map[string]string{
	"P4704": "https://americanart.si.edu/artwork/%s", // SAAM artwork ID
	"P4709": "https://collection.barnesfoundation.org/objects/%s/details", // Barnes Foundation ID
	"P4701": "https://sammlung.staedelmuseum.de/en/work/%s", // Städel Museum ID
}

// describedAtURL is the property carrying a full reference URL.
const describedAtURL = "P973"

// Service runs the resolver chain over an entity's catalog claims.
type Service struct {
	request   *request.Client
	resolvers []Resolver
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService builds the default resolver chain. The html fallback goes last
// so institution-specific resolvers get first pick.
func NewService(r *request.Client, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		request: r,
		resolvers: []Resolver{
			&diaResolver{request: r},
			&rijksmuseumResolver{request: r},
			&saamResolver{request: r},
			&htmlResolver{request: r},
		},
		timeout: timeout,
		logger:  logger,
	}
}

// candidateURLs collects catalog page URLs from the entity's claims:
// described-at URLs first, then URLs rebuilt from catalog-ID properties.
func candidateURLs(e *wikidata.Entity) []string {
	var urls []string
	seen := make(map[string]struct{})

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, claim := range e.Claims[describedAtURL] {
		if u, ok := claim.Mainsnak.DataValue.Str(); ok {
			add(u)
		}
	}
	pids := make([]string, 0, len(catalogProperties))
	for pid := range catalogProperties {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	for _, pid := range pids {
		tmpl := catalogProperties[pid]
		for _, claim := range e.Claims[pid] {
			if id, ok := claim.Mainsnak.DataValue.Str(); ok && id != "" {
				add(fmt.Sprintf(tmpl, id))
			}
		}
	}
	return urls
}

// Lookup tries every candidate URL against the resolver chain and returns the
// first hit. Scraping is strictly best-effort: every failure is swallowed and
// a nil Info returned.
func (s *Service) Lookup(ctx context.Context, e *wikidata.Entity) *Info {
	if e == nil {
		return nil
	}

	for _, u := range candidateURLs(e) {
		for _, r := range s.resolvers {
			if !r.Match(u) {
				continue
			}

			sctx, cancel := context.WithTimeout(ctx, s.timeout)
			info, err := r.Resolve(sctx, u)
			cancel()

			if err != nil {
				s.logger.Debug("catalog resolve failed", "resolver", r.Name(), "url", u, "error", err)
				break
			}
			if info != nil {
				info.URL = u
				return info
			}
			break
		}
	}
	return nil
}
