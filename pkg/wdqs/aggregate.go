package wdqs

import (
	"fmt"
	"sort"
	"strings"

	"depictsgo/pkg/commons"
)

// labelMissing is the display sentinel for items with no usable label at all.
const labelMissing = "name missing"

// Item is the fold of all result rows sharing one entity id: one record per
// artwork, display-ready. Built per query response and held in memory only.
type Item struct {
	ItemID         int64    `json:"item_id"`
	QID            string   `json:"qid"`
	Label          string   `json:"label"`
	Date           string   `json:"date,omitempty"`
	ArtistName     string   `json:"artist_name,omitempty"`
	ImageFilenames []string `json:"image_filenames"`
	Depicts        []string `json:"depicts,omitempty"`
}

// group carries per-item fold state while consuming rows.
type group struct {
	item      *Item
	labelDone bool
	titleEn   string
	titleAny  string
	titlePref string
	artists   map[string]struct{}
	images    map[string]struct{}
	depicts   map[string]struct{}
}

// BuildItemMap folds raw result rows into one Item per entity. The query
// service emits one row per matching triple combination, so several rows
// typically describe the same artwork; rows are regrouped by item id and
// folded in original row order:
//
//   - label: the first row whose itemLabel is not the bare "Q<id>" fallback
//     wins; failing that a title binding (titleLang preference, then English,
//     then any language); failing that the "name missing" sentinel.
//   - date: the first row carrying a time with precision wins, formatted per
//     FormatTime. First found, not most precise.
//   - artist: every distinct artistLabel across the group, first-seen order,
//     comma-joined. No artist at all leaves the field empty.
//   - images: the set of distinct resolved filenames.
//   - depicts: the deduplicated union of all depictsList values.
func BuildItemMap(rows []Row, titleLang string) (map[int64]*Item, error) {
	groups := make(map[int64]*group)

	for _, row := range rows {
		itemID, err := RowID(row)
		if err != nil {
			return nil, fmt.Errorf("bad item binding: %w", err)
		}
		qid := fmt.Sprintf("Q%d", itemID)

		g, ok := groups[itemID]
		if !ok {
			g = &group{
				item:    &Item{ItemID: itemID, QID: qid},
				artists: make(map[string]struct{}),
				images:  make(map[string]struct{}),
				depicts: make(map[string]struct{}),
			}
			groups[itemID] = g
		}

		// Label: first non-fallback itemLabel wins.
		if !g.labelDone {
			if label := RowValue(row, "itemLabel"); label != "" && label != qid {
				g.item.Label = label
				g.labelDone = true
			}
		}
		// Track title bindings for the fallback chain.
		if title := RowValue(row, "title"); title != "" {
			lang := RowLang(row, "titleLang")
			if lang == "" {
				lang = RowValue(row, "titleLang")
			}
			if g.titlePref == "" && titleLang != "" && lang == titleLang {
				g.titlePref = title
			}
			if g.titleEn == "" && lang == "en" {
				g.titleEn = title
			}
			if g.titleAny == "" {
				g.titleAny = title
			}
		}

		// Date: first time+precision pair wins, in row order.
		if g.item.Date == "" {
			if t, ok := row["time"]; ok {
				if p, ok := row["timeprecision"]; ok {
					var precision int
					if _, err := fmt.Sscanf(p.Value, "%d", &precision); err == nil {
						g.item.Date = FormatTime(t.Value, precision)
					}
				}
			}
		}

		// Artists: distinct labels, first-seen order.
		if artist := RowValue(row, "artistLabel"); artist != "" {
			if _, ok := g.artists[artist]; !ok {
				g.artists[artist] = struct{}{}
				if g.item.ArtistName != "" {
					g.item.ArtistName += ", "
				}
				g.item.ArtistName += artist
			}
		}

		// Images: distinct filenames.
		if imageURI := RowValue(row, "image"); imageURI != "" {
			if filename, err := commons.URIToFilename(imageURI); err == nil {
				if _, ok := g.images[filename]; !ok {
					g.images[filename] = struct{}{}
					g.item.ImageFilenames = append(g.item.ImageFilenames, filename)
				}
			}
		}

		// Depicts: union across rows.
		if list := RowValue(row, "depictsList"); list != "" {
			for _, uri := range strings.Split(list, ",") {
				qid := QIDFromURI(uri)
				if qid == "" {
					continue
				}
				if _, ok := g.depicts[qid]; !ok {
					g.depicts[qid] = struct{}{}
					g.item.Depicts = append(g.item.Depicts, qid)
				}
			}
		}
	}

	items := make(map[int64]*Item, len(groups))
	for id, g := range groups {
		if !g.labelDone {
			switch {
			case g.titlePref != "":
				g.item.Label = g.titlePref
			case g.titleEn != "":
				g.item.Label = g.titleEn
			case g.titleAny != "":
				g.item.Label = g.titleAny
			default:
				g.item.Label = labelMissing
			}
		}
		items[id] = g.item
	}

	return items, nil
}

// SingleImageItems returns the displayable page of items: those with exactly
// one distinct image filename, ordered by ascending item id, capped at
// pageSize (0 = unbounded). Items with several distinct images have an
// ambiguous primary image and are excluded.
func SingleImageItems(items map[int64]*Item, pageSize int) []*Item {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var page []*Item
	for _, id := range ids {
		item := items[id]
		if len(item.ImageFilenames) != 1 {
			continue
		}
		page = append(page, item)
		if pageSize > 0 && len(page) >= pageSize {
			break
		}
	}
	return page
}
