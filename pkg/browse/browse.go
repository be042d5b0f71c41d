package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"depictsgo/pkg/cache"
	"depictsgo/pkg/catalog"
	"depictsgo/pkg/commons"
	"depictsgo/pkg/config"
	"depictsgo/pkg/store"
	"depictsgo/pkg/wdqs"
	"depictsgo/pkg/wikidata"
)

// ErrNotFound marks an item that does not exist on the remote side.
var ErrNotFound = errors.New("item not found")

// Service assembles browse pages and item detail from the query service, the
// entity API, the image resolver and the catalog scrapers. The query is the
// primary path; everything else is enrichment and degrades to absent fields.
type Service struct {
	wdqs     *wdqs.Client
	wikidata *wikidata.Client
	commons  *commons.Client
	catalog  *catalog.Service
	depicts  store.DepictsStore
	cfg      config.BrowseConfig
	logger   *slog.Logger
}

// New wires the browse service. catalog and depicts may be nil; the
// corresponding enrichment is then skipped.
func New(q *wdqs.Client, w *wikidata.Client, c *commons.Client, cat *catalog.Service, depicts store.DepictsStore, cfg config.BrowseConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		wdqs:     q,
		wikidata: w,
		commons:  c,
		catalog:  cat,
		depicts:  depicts,
		cfg:      cfg,
		logger:   logger,
	}
}

// Page is one browse view: the displayable artworks matching the pinned
// constraints, their thumbnails, and the facet suggestions for narrowing.
type Page struct {
	Constraints      []wdqs.Constraint            `json:"constraints"`
	ConstraintLabels map[string]string            `json:"constraint_labels,omitempty"`
	Items            []*wdqs.Item                 `json:"items"`
	Images           map[string]*commons.Image    `json:"images,omitempty"`
	Facets           map[string][]wdqs.FacetValue `json:"facets,omitempty"`
	Properties       map[string]string            `json:"properties"`
	Page             int                          `json:"page"`
	Total            int                          `json:"total"`
}

// facetProps returns the pinnable property ids in stable order.
func (s *Service) facetProps() []string {
	props := make([]string, 0, len(s.cfg.FindMoreProps))
	for pid := range s.cfg.FindMoreProps {
		props = append(props, pid)
	}
	sort.Strings(props)
	return props
}

// Browse builds the given page of results for the pinned constraints. Pages
// are numbered from 1; a page past the end comes back with no items but the
// true total, so callers can recover. A failure of the item query itself is
// fatal; thumbnail, facet and label enrichment failures are logged and leave
// their fields empty.
func (s *Service) Browse(ctx context.Context, constraints []wdqs.Constraint, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	query := wdqs.BuildQuery(wdqs.FindMoreQuery, constraints, nil, s.cfg.IsaList)
	name := "find_more_" + wdqs.ConstraintsKey(constraints)
	if len(constraints) == 0 {
		name = "find_more_" + cache.MD5Key(query)
	}

	rows, err := s.wdqs.RunQueryWithCache(ctx, query, name, "find_more")
	if err != nil {
		return nil, fmt.Errorf("item query failed: %w", err)
	}

	itemMap, err := wdqs.BuildItemMap(rows, "en")
	if err != nil {
		return nil, err
	}

	all := wdqs.SingleImageItems(itemMap, 0)
	total := len(all)
	items := all
	if s.cfg.PageSize > 0 {
		start := (page - 1) * s.cfg.PageSize
		if start >= len(all) {
			items = nil
		} else {
			end := start + s.cfg.PageSize
			if end > len(all) {
				end = len(all)
			}
			items = all[start:end]
		}
	}

	result := &Page{
		Constraints: constraints,
		Items:       items,
		Properties:  s.cfg.FindMoreProps,
		Page:        page,
		Total:       total,
	}

	filenames := make([]string, 0, len(items))
	for _, item := range items {
		filenames = append(filenames, item.ImageFilenames[0])
	}
	if len(filenames) > 0 {
		imgKey := fmt.Sprintf("%s_images_%d", name, page)
		images, err := s.commons.ImageDetailCached(ctx, imgKey, filenames, s.cfg.ThumbWidth, s.cfg.ThumbHeight)
		if err != nil {
			s.logger.Warn("thumbnail lookup failed", "error", err)
		} else {
			result.Images = images
		}
	}

	facets, err := s.wdqs.Facets(ctx, constraints, s.facetProps(), s.cfg.IsaList, s.cfg.FacetLimit)
	if err != nil {
		s.logger.Warn("facet query failed", "error", err)
	} else {
		result.Facets = facets
	}

	if len(constraints) > 0 {
		ids := make([]string, 0, len(constraints))
		for _, c := range constraints {
			ids = append(ids, c.QID)
		}
		labels, err := s.wikidata.GetLabels(ctx, ids, name+"_constraints")
		if err != nil {
			s.logger.Warn("constraint label lookup failed", "error", err)
		} else {
			result.ConstraintLabels = labels
		}
	}

	return result, nil
}

// DepictsValue is one existing depicts statement with its resolved label.
type DepictsValue struct {
	QID   string `json:"qid"`
	Label string `json:"label,omitempty"`
}

// ItemDetail is the data behind one artwork's page.
type ItemDetail struct {
	QID         string          `json:"qid"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	Filename    string          `json:"filename,omitempty"`
	Image       *commons.Image  `json:"image,omitempty"`
	Depicts     []DepictsValue  `json:"depicts,omitempty"`
	Catalog     *catalog.Info   `json:"catalog,omitempty"`
}

// detailImageWidth is the render width on the item page.
const detailImageWidth = 800

// Item fetches one artwork's detail. A missing entity returns ErrNotFound;
// enrichment failures (image, labels, catalog) degrade to absent fields.
func (s *Service) Item(ctx context.Context, qid string) (*ItemDetail, error) {
	if _, err := wikidata.ParseQID(qid); err != nil {
		return nil, err
	}

	ent, err := s.wikidata.GetEntityCached(ctx, qid)
	if err != nil {
		return nil, fmt.Errorf("entity fetch failed: %w", err)
	}
	if ent == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, qid)
	}

	detail := &ItemDetail{QID: qid}

	label, res := wikidata.EntityLabel(ent)
	if res == wikidata.LabelFound {
		detail.Label = label
	}
	if d, ok := ent.Descriptions["en"]; ok {
		detail.Description = d.Value
	}

	if dv := wikidata.FirstDatavalue(ent, "P18"); dv != nil {
		if filename, ok := dv.Str(); ok {
			detail.Filename = filename
			images, err := s.commons.ImageDetailCached(ctx, qid+"_image", []string{filename}, detailImageWidth, 0)
			if err != nil {
				s.logger.Warn("image detail failed", "qid", qid, "error", err)
			} else {
				detail.Image = images[filename]
			}
		}
	}

	if depicts := wikidata.LinkedQIDs(ent, "P180"); len(depicts) > 0 {
		labels, err := s.wikidata.GetLabels(ctx, depicts, qid+"_depicts")
		if err != nil {
			s.logger.Warn("depicts label lookup failed", "qid", qid, "error", err)
			labels = nil
		}
		for _, d := range depicts {
			detail.Depicts = append(detail.Depicts, DepictsValue{QID: d, Label: labels[d]})
		}
		s.saveDepictsLabels(ctx, labels)
	}

	if s.catalog != nil {
		detail.Catalog = s.catalog.Lookup(ctx, ent)
	}

	return detail, nil
}

// saveDepictsLabels caches resolved labels in the side-store so suggestion
// lists can render without another API round trip. Best-effort.
func (s *Service) saveDepictsLabels(ctx context.Context, labels map[string]string) {
	if s.depicts == nil {
		return
	}
	for qid, label := range labels {
		id, err := wikidata.ParseQID(qid)
		if err != nil {
			continue
		}
		existing, err := s.depicts.GetDepictsLabel(ctx, id)
		if err != nil {
			s.logger.Warn("depicts store read failed", "qid", qid, "error", err)
			continue
		}
		rec := &store.DepictsLabel{ItemID: id, Label: label}
		if existing != nil {
			rec.Description = existing.Description
			rec.Count = existing.Count + 1
		} else {
			rec.Count = 1
		}
		if err := s.depicts.SaveDepictsLabel(ctx, rec); err != nil {
			s.logger.Warn("depicts store write failed", "qid", qid, "error", err)
		}
	}
}
