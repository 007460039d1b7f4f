package snap

import (
	"strings"

	"golang.org/x/net/html"
)

// InventorySources builds the ordered style-source list straight from a
// document tree: inline <style> elements parse in place, <link
// rel="stylesheet"> elements become address-only sources the engine fetches
// when it reaches them. The browser capture path builds the same list from
// the live page with real accessibility flags; this one serves the static
// tools and tests.
func InventorySources(doc *html.Node, base string) []*Source {
	var sources []*Source
	walkElements(doc, func(n *html.Node) {
		switch {
		case isElement(n, "style"):
			text := ""
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				text = n.FirstChild.Data
			}
			src := &Source{Base: base, Index: len(sources)}
			if base != "" {
				text = AbsolutizeURLs(text, base)
			}
			if rules, err := ParseRules(text); err == nil {
				src.Rules = rules
			}
			sources = append(sources, src)
		case isElement(n, "link") && isStylesheetLink(n):
			href := strings.TrimSpace(getAttr(n, "href"))
			if href == "" {
				return
			}
			abs := resolveAgainst(base, href)
			if abs == "" {
				abs = href
			}
			sources = append(sources, &Source{Href: abs, Base: abs, Index: len(sources)})
		}
	})
	return sources
}

func isStylesheetLink(n *html.Node) bool {
	rel := strings.ToLower(strings.TrimSpace(getAttr(n, "rel")))
	if !strings.Contains(rel, "stylesheet") || strings.Contains(rel, "alternate") {
		return false
	}
	typ := strings.ToLower(strings.TrimSpace(getAttr(n, "type")))
	return typ == "" || typ == "text/css"
}
