package snap

import (
	"net/url"
	"strings"
)

// AbsolutizeURLs rewrites every url(...) reference in style text so it
// resolves against base rather than against wherever the text ends up
// embedded. References that carry their own meaning (data:, blob:, about:,
// bare fragments) and references that fail to resolve are left untouched.
// Running the rewrite twice against the same base is a no-op: an absolute
// address resolves to itself.
func AbsolutizeURLs(cssText, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return cssText
	}

	var b strings.Builder
	b.Grow(len(cssText))
	i := 0
	for i < len(cssText) {
		idx := indexURLToken(cssText[i:])
		if idx == -1 {
			b.WriteString(cssText[i:])
			break
		}
		start := i + idx
		open := start + len("url(")
		end := findURLClose(cssText, open)
		if end == -1 {
			b.WriteString(cssText[i:])
			break
		}
		b.WriteString(cssText[i:start])
		ref := strings.TrimSpace(cssText[open:end])
		b.WriteString(rewriteRef(ref, baseURL))
		b.WriteByte(')')
		i = end + 1
	}
	return b.String()
}

// indexURLToken finds the next "url(" not preceded by an identifier byte,
// so that e.g. -webkit-image-set's inner url() tokens are still found but
// "surl(" style identifiers are not mangled.
func indexURLToken(s string) int {
	lower := strings.ToLower(s)
	from := 0
	for {
		idx := strings.Index(lower[from:], "url(")
		if idx == -1 {
			return -1
		}
		idx += from
		if idx == 0 || !isPseudoNameByte(lower[idx-1]) {
			return idx
		}
		from = idx + 4
	}
}

// findURLClose returns the index of the ')' terminating a url() token whose
// body starts at open, honoring quoted bodies. -1 when the token never
// closes.
func findURLClose(s string, open int) int {
	i := open
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i < len(s) && (s[i] == '\'' || s[i] == '"') {
		q := s[i]
		i++
		for i < len(s) {
			if s[i] == '\\' && i+1 < len(s) {
				i += 2
				continue
			}
			if s[i] == q {
				break
			}
			i++
		}
	}
	for i < len(s) {
		if s[i] == ')' {
			return i
		}
		i++
	}
	return -1
}

func rewriteRef(ref string, base *url.URL) string {
	inner := ref
	if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
		inner = inner[1 : len(inner)-1]
	}
	target := strings.TrimSpace(inner)
	if target == "" || skipRewrite(target) {
		return "url(" + ref
	}
	refURL, err := url.Parse(target)
	if err != nil {
		return "url(" + ref
	}
	abs := base.ResolveReference(refURL).String()
	return `url("` + abs + `"`
}

func skipRewrite(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "blob:") ||
		strings.HasPrefix(lower, "about:") ||
		strings.HasPrefix(target, "#")
}
