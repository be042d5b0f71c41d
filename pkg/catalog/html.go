package catalog

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// pageMeta is the distilled head content of a scraped page.
type pageMeta struct {
	title string
	meta  map[string]string // name/property attribute -> content
}

// parsePage extracts the title and meta tags from an HTML document. The
// parser never fails on malformed markup, it produces a best-effort tree.
func parsePage(body []byte) (*pageMeta, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	p := &pageMeta{meta: make(map[string]string)}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && p.title == "" {
					p.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var key, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "name", "property":
						key = strings.ToLower(a.Val)
					case "content":
						content = a.Val
					}
				}
				if key != "" && content != "" {
					if _, ok := p.meta[key]; !ok {
						p.meta[key] = content
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return p, nil
}

// description prefers og:description over the plain description meta tag.
func (p *pageMeta) description() string {
	if d, ok := p.meta["og:description"]; ok {
		return strings.TrimSpace(d)
	}
	return strings.TrimSpace(p.meta["description"])
}

// keywords splits the keywords meta tag on commas.
func (p *pageMeta) keywords() []string {
	raw, ok := p.meta["keywords"]
	if !ok {
		return nil
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
