package snap

import (
	"strings"

	cssast "github.com/aymerick/douceur/css"
)

// renderRule reassembles one parsed rule into compact CSS text. douceur's own
// String() is geared toward pretty-printing; the snapshot wants stable
// single-purpose output, so the engine renders rules itself.
func renderRule(rule *cssast.Rule) string {
	if rule == nil {
		return ""
	}
	var b strings.Builder
	writeRule(&b, rule)
	return b.String()
}

func writeRule(b *strings.Builder, rule *cssast.Rule) {
	switch rule.Kind {
	case cssast.QualifiedRule:
		b.WriteString(strings.TrimSpace(rule.Prelude))
		writeBlock(b, rule)
	case cssast.AtRule:
		b.WriteString(rule.Name)
		if p := strings.TrimSpace(rule.Prelude); p != "" {
			b.WriteByte(' ')
			b.WriteString(p)
		}
		if rule.EmbedsRules() {
			b.WriteString(" { ")
			for i, child := range rule.Rules {
				if child == nil {
					continue
				}
				if i > 0 {
					b.WriteByte(' ')
				}
				writeRule(b, child)
			}
			b.WriteString(" }")
			return
		}
		if len(rule.Declarations) > 0 {
			writeBlock(b, rule)
			return
		}
		// Statement-style at-rule (@import, @namespace, ...).
		b.WriteByte(';')
	}
}

func writeBlock(b *strings.Builder, rule *cssast.Rule) {
	b.WriteString(" { ")
	for i, decl := range rule.Declarations {
		if decl == nil {
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(decl.StringWithImportant(decl.Important))
	}
	b.WriteString(" }")
}

// wrapGroup rebuilds a conditional group around the children that survived
// relevance filtering.
func wrapGroup(name, prelude string, children []string) string {
	var b strings.Builder
	b.WriteString(name)
	if p := strings.TrimSpace(prelude); p != "" {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	b.WriteString(" {\n")
	for _, child := range children {
		b.WriteString(child)
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}
