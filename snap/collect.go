package snap

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	cssast "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Source is one ordered style container attached to the captured document.
//
// Three states drive the engine:
//   - Rules != nil: the rule list was readable, walk it directly.
//   - Blocked: rule-list access was denied; the engine warns, then falls back
//     to fetching Href.
//   - otherwise: a sheet known only by address (a bare link, or an @import
//     target); the engine fetches it without the access-denied warning.
type Source struct {
	Href    string // network address; empty for inline style elements
	Base    string // address url() references and imports resolve against
	Index   int    // position among the document's style containers
	Blocked bool
	Rules   []*cssast.Rule
}

// Warning records a non-fatal problem met during collection. Warnings ride
// along with the result; they never abort a capture.
type Warning struct {
	Message string
}

// Engine walks the ordered style sources of one capture and collects the
// text of every rule that applies to the frozen document.
type Engine struct {
	Matcher  *Matcher
	Fetcher  Fetcher
	Viewport Viewport
	Logger   *log.Logger

	// MaxDepth caps import nesting, FetchBudget caps network retrievals per
	// capture. Zero means the default.
	MaxDepth    int
	FetchBudget int
}

const (
	defaultMaxDepth    = 16
	defaultFetchBudget = 16
)

// Collect runs one traversal over sources and returns the aggregated style
// text: font-face blocks first, keyframes second, matched rules last, all
// newline-joined, plus whatever warnings accumulated along the way.
func (e *Engine) Collect(ctx context.Context, sources []*Source) (string, []Warning) {
	c := &collector{
		engine:        e,
		visited:       map[*Source]struct{}{},
		visitedAddr:   map[string]struct{}{},
		fontFaceSeen:  map[string]struct{}{},
		keyframesSeen: map[string]struct{}{},
		budget:        e.FetchBudget,
		maxDepth:      e.MaxDepth,
	}
	if c.budget <= 0 {
		c.budget = defaultFetchBudget
	}
	if c.maxDepth <= 0 {
		c.maxDepth = defaultMaxDepth
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		c.visitSource(ctx, src, 0)
	}

	var parts []string
	parts = append(parts, c.fontFaces...)
	parts = append(parts, c.keyframes...)
	parts = append(parts, c.rules...)
	return strings.Join(parts, "\n"), c.warnings
}

type collector struct {
	engine      *Engine
	visited     map[*Source]struct{}
	visitedAddr map[string]struct{}

	fontFaces     []string
	fontFaceSeen  map[string]struct{}
	keyframes     []string
	keyframesSeen map[string]struct{}
	rules         []string
	warnings      []Warning

	budget   int
	maxDepth int
}

func (c *collector) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Message: fmt.Sprintf(format, args...)})
}

func (c *collector) logf(format string, args ...any) {
	if c.engine.Logger != nil {
		c.engine.Logger.Printf(format, args...)
	}
}

// visitSource processes one style container exactly once. The visited mark
// is set before any suspension point, so a source reachable over several
// import paths, or importing itself, contributes a single time.
func (c *collector) visitSource(ctx context.Context, src *Source, depth int) {
	if _, seen := c.visited[src]; seen {
		return
	}
	c.visited[src] = struct{}{}
	if src.Href != "" {
		c.visitedAddr[src.Href] = struct{}{}
	}
	if depth >= c.maxDepth {
		return
	}

	if src.Rules != nil {
		c.rules = append(c.rules, c.walkRules(ctx, src.Rules, c.baseFor(src), depth)...)
		return
	}

	if src.Href == "" {
		// Inline source with no readable rules: nothing to fetch.
		return
	}
	if src.Blocked {
		c.warnf("stylesheet %s: rule list blocked by cross-origin policy", src.Href)
	}

	res := c.fetch(ctx, src.Href)
	if !res.OK {
		c.warnf("stylesheet %s: fetch failed: %s", src.Href, res.Err)
		return
	}
	rules, err := ParseRules(AbsolutizeURLs(res.Text, src.Href))
	if err != nil {
		c.warnf("stylesheet %s: unparseable: %v", src.Href, err)
		return
	}
	c.rules = append(c.rules, c.walkRules(ctx, rules, src.Href, depth)...)
}

func (c *collector) baseFor(src *Source) string {
	if src.Base != "" {
		return src.Base
	}
	return src.Href
}

func (c *collector) fetch(ctx context.Context, address string) FetchResult {
	if c.engine.Fetcher == nil {
		return FetchResult{Err: "no fetcher configured"}
	}
	if c.budget <= 0 {
		return FetchResult{Err: "stylesheet fetch budget exhausted"}
	}
	c.budget--
	return c.engine.Fetcher.FetchCSS(ctx, address)
}

// walkRules dispatches over one rule list and returns the texts that
// survived relevance filtering, in source order. Font-face and keyframes
// blocks go straight to their dedup sets instead.
func (c *collector) walkRules(ctx context.Context, rules []*cssast.Rule, base string, depth int) []string {
	var kept []string
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		switch rule.Kind {
		case cssast.QualifiedRule:
			if len(rule.Selectors) == 0 {
				continue
			}
			if c.engine.Matcher != nil && c.engine.Matcher.Relevant(strings.Join(rule.Selectors, ",")) {
				kept = append(kept, renderRule(rule))
			}
		case cssast.AtRule:
			if text, ok := c.walkAtRule(ctx, rule, base, depth); ok {
				kept = append(kept, text)
			}
		}
	}
	return kept
}

func (c *collector) walkAtRule(ctx context.Context, rule *cssast.Rule, base string, depth int) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(rule.Name))
	switch name {
	case "@media":
		if !c.engine.Viewport.MediaActive(rule.Prelude) {
			return "", false
		}
		children := c.walkRules(ctx, rule.Rules, base, depth)
		if len(children) == 0 {
			return "", false
		}
		return wrapGroup(rule.Name, rule.Prelude, children), true
	case "@supports":
		if !SupportsActive(rule.Prelude) {
			return "", false
		}
		children := c.walkRules(ctx, rule.Rules, base, depth)
		if len(children) == 0 {
			return "", false
		}
		return wrapGroup(rule.Name, rule.Prelude, children), true
	case "@keyframes", "@-webkit-keyframes", "@-moz-keyframes", "@-o-keyframes":
		text := renderRule(rule)
		if _, seen := c.keyframesSeen[text]; !seen {
			c.keyframesSeen[text] = struct{}{}
			c.keyframes = append(c.keyframes, text)
		}
		return "", false
	case "@font-face":
		text := renderRule(rule)
		if _, seen := c.fontFaceSeen[text]; !seen {
			c.fontFaceSeen[text] = struct{}{}
			c.fontFaces = append(c.fontFaces, text)
		}
		return "", false
	case "@import":
		c.visitImport(ctx, rule.Prelude, base, depth)
		return "", false
	case "@charset":
		return "", false
	default:
		if rule.EmbedsRules() {
			children := c.walkRules(ctx, rule.Rules, base, depth)
			if len(children) == 0 {
				return "", false
			}
			return wrapGroup(rule.Name, rule.Prelude, children), true
		}
		// Opaque leaf (@page, @namespace, ...): keep whole text.
		return renderRule(rule), true
	}
}

// visitImport resolves an @import statement into a synthetic nested source
// and recurses into it in place of the statement's own text.
func (c *collector) visitImport(ctx context.Context, prelude, base string, depth int) {
	target, media := extractImportTarget(prelude)
	if target == "" {
		return
	}
	if media != "" && !c.engine.Viewport.MediaActive(media) {
		return
	}
	abs := resolveAgainst(base, target)
	if abs == "" {
		abs = target
	}
	if _, seen := c.visitedAddr[abs]; seen {
		return
	}
	c.logf("import %s (depth %d)", abs, depth+1)
	nested := &Source{Href: abs, Base: abs}
	c.visitSource(ctx, nested, depth+1)
}

// extractImportTarget pulls the address and optional media suffix out of an
// @import prelude, accepting url(...) and plain string forms.
func extractImportTarget(prelude string) (string, string) {
	s := strings.TrimSpace(prelude)
	if s == "" {
		return "", ""
	}
	if strings.HasPrefix(strings.ToLower(s), "url(") {
		end := strings.Index(s, ")")
		if end == -1 {
			return "", ""
		}
		target := trimCSSString(strings.TrimSpace(s[4:end]))
		return target, strings.TrimSpace(s[end+1:])
	}
	if (s[0] == '"' || s[0] == '\'') && len(s) > 1 {
		if idx := strings.IndexByte(s[1:], s[0]); idx != -1 {
			return s[1 : idx+1], strings.TrimSpace(s[idx+2:])
		}
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	return trimCSSString(fields[0]), strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
}

func trimCSSString(v string) string {
	vv := strings.TrimSpace(v)
	if len(vv) >= 2 {
		if (vv[0] == '"' && vv[len(vv)-1] == '"') || (vv[0] == '\'' && vv[len(vv)-1] == '\'') {
			return vv[1 : len(vv)-1]
		}
	}
	return vv
}

func resolveAgainst(base, ref string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return bu.ResolveReference(ru).String()
}

// ParseRules turns raw stylesheet text into a disconnected rule list.
func ParseRules(text string) ([]*cssast.Rule, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []*cssast.Rule{}, nil
	}
	sheet, err := parser.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return sheet.Rules, nil
}
