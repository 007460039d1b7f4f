package snap

import "strings"

// SplitSelectorList breaks a compound selector text into its individual
// clauses. Commas inside quoted strings or inside [...] / (...) nesting do
// not separate clauses. Clauses are trimmed; empty clauses are dropped.
func SplitSelectorList(list string) []string {
	var out []string
	var buf strings.Builder
	depth := 0
	quote := byte(0)

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}

	for i := 0; i < len(list); i++ {
		c := list[i]
		if quote != 0 {
			buf.WriteByte(c)
			if c == '\\' && i+1 < len(list) {
				buf.WriteByte(list[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			buf.WriteByte(c)
		case '[', '(':
			depth++
			buf.WriteByte(c)
		case ']', ')':
			if depth > 0 {
				depth--
			}
			buf.WriteByte(c)
		case ',':
			if depth == 0 {
				flush()
			} else {
				buf.WriteByte(c)
			}
		default:
			buf.WriteByte(c)
		}
	}
	flush()
	return out
}

// transientPseudoClasses are pseudo-classes describing interaction or
// transient state. Selectors carrying them never match a frozen document,
// so the normalizer strips them to recover a matchable base selector.
var transientPseudoClasses = []string{
	":hover",
	":focus-within",
	":focus-visible",
	":focus",
	":active",
	":visited",
	":link",
	":checked",
	":disabled",
	":enabled",
	":target",
}

// NormalizeSelector strips pseudo-elements and transient pseudo-classes from
// a single selector clause. The result may be empty or differ syntactically
// from the input; a result equal to the input means there was nothing to
// strip and no fallback is available.
func NormalizeSelector(sel string) string {
	s := sel
	// ::before, ::after and any other ::name pseudo-element.
	for {
		idx := strings.Index(s, "::")
		if idx == -1 {
			break
		}
		end := idx + 2
		for end < len(s) && isPseudoNameByte(s[end]) {
			end++
		}
		s = s[:idx] + s[end:]
	}
	for _, pc := range transientPseudoClasses {
		from := 0
		for {
			idx := indexFold(s[from:], pc)
			if idx == -1 {
				break
			}
			idx += from
			end := idx + len(pc)
			// Do not cut ":focus" out of a longer pseudo-class name; the
			// focus family is ordered longest-first above, this guards the
			// rest.
			if end < len(s) && isPseudoNameByte(s[end]) {
				from = end
				continue
			}
			s = s[:idx] + s[end:]
			from = idx
		}
	}
	return strings.TrimSpace(s)
}

func isPseudoNameByte(c byte) bool {
	return c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func indexFold(s, sub string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(sub))
}
