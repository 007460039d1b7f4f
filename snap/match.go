package snap

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Matcher answers whether selectors currently match anything in a live
// document tree. One Matcher is built per capture; its compiled-selector
// cache never outlives it.
type Matcher struct {
	doc   *html.Node
	cache map[string]cascadia.Sel
}

// NewMatcher wraps the frozen document tree the capture operates on.
func NewMatcher(doc *html.Node) *Matcher {
	return &Matcher{doc: doc, cache: map[string]cascadia.Sel{}}
}

// Relevant reports whether at least one clause of the selector list matches
// at least one node. Clauses the engine cannot parse are retried once in
// normalized form; clauses that still fail count as non-matching.
func (m *Matcher) Relevant(selectorList string) bool {
	for _, clause := range SplitSelectorList(selectorList) {
		if m.clauseMatches(clause) {
			return true
		}
	}
	return false
}

// clauseMatches tries the clause as written, then falls back to its
// normalized form. The fallback also covers selector engines that accept an
// interaction pseudo-class as valid but can never match it against a static
// tree: either way the base selector decides.
func (m *Matcher) clauseMatches(clause string) bool {
	if m == nil || m.doc == nil {
		return false
	}
	if sel, err := m.compile(clause); err == nil && matchAny(m.doc, sel) {
		return true
	}
	norm := NormalizeSelector(clause)
	if norm == "" || norm == clause {
		return false
	}
	sel, err := m.compile(norm)
	if err != nil {
		return false
	}
	return matchAny(m.doc, sel)
}

func (m *Matcher) compile(clause string) (cascadia.Sel, error) {
	if sel, ok := m.cache[clause]; ok {
		if sel == nil {
			return nil, errBadSelector
		}
		return sel, nil
	}
	sel, err := cascadia.Parse(clause)
	if err != nil {
		m.cache[clause] = nil
		return nil, err
	}
	m.cache[clause] = sel
	return sel, nil
}

type badSelectorError struct{}

func (badSelectorError) Error() string { return "unparseable selector" }

var errBadSelector = badSelectorError{}

func matchAny(n *html.Node, sel cascadia.Sel) bool {
	if n.Type == html.ElementNode && sel.Match(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if matchAny(c, sel) {
			return true
		}
	}
	return false
}
