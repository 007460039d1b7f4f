package snap

import (
	"strconv"
	"strings"
)

// Viewport describes the rendering surface a capture happened on. It is what
// the media evaluator tests conditions against, standing in for "is this
// query true right now" on the live page.
type Viewport struct {
	Width       int
	Height      int
	ColorScheme string // "light" or "dark"
}

func (v Viewport) width() int {
	if v.Width > 0 {
		return v.Width
	}
	return 1280
}

func (v Viewport) height() int {
	if v.Height > 0 {
		return v.Height
	}
	return 800
}

func (v Viewport) colorScheme() string {
	if v.ColorScheme == "dark" {
		return "dark"
	}
	return "light"
}

// MediaActive reports whether a media query list holds for the viewport.
// An empty prelude is unconditionally active. Unknown features pass, so a
// query is only dropped when a feature we do understand rules it out.
func (v Viewport) MediaActive(prelude string) bool {
	if strings.TrimSpace(prelude) == "" {
		return true
	}
	for _, raw := range strings.Split(prelude, ",") {
		query := strings.ToLower(strings.TrimSpace(raw))
		if query == "" {
			continue
		}
		negated := false
		if strings.HasPrefix(query, "not ") {
			negated = true
			query = strings.TrimSpace(query[4:])
		}
		query = strings.TrimPrefix(query, "only ")

		mediaType := ""
		rest := query
		if fields := strings.Fields(query); len(fields) > 0 && !strings.HasPrefix(fields[0], "(") {
			mediaType = fields[0]
			rest = strings.TrimSpace(strings.TrimPrefix(query, mediaType))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "and"))
		}

		ok := false
		switch mediaType {
		case "", "all", "screen":
			ok = v.featuresHold(rest)
		case "print", "speech", "aural", "braille", "embossed", "tty", "tv", "handheld", "projection":
			ok = false
		default:
			ok = v.featuresHold(rest)
		}
		if negated {
			ok = !ok
		}
		if ok {
			return true
		}
	}
	return false
}

func (v Viewport) featuresHold(expr string) bool {
	width := v.width()
	height := v.height()

	for _, clause := range splitTopLevel(expr, " and ") {
		c := strings.TrimSpace(clause)
		if c == "" {
			continue
		}
		if strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")") {
			c = strings.TrimSpace(c[1 : len(c)-1])
		}
		feature, value, _ := strings.Cut(c, ":")
		feature = strings.TrimSpace(feature)
		value = strings.TrimSpace(value)

		switch feature {
		case "orientation":
			orientation := "portrait"
			if width > height {
				orientation = "landscape"
			}
			if value != "" && value != orientation {
				return false
			}
		case "min-width":
			if px, ok := cssLengthToPx(value, width); ok && width < px {
				return false
			}
		case "max-width":
			if px, ok := cssLengthToPx(value, width); ok && width > px {
				return false
			}
		case "min-height":
			if px, ok := cssLengthToPx(value, height); ok && height < px {
				return false
			}
		case "max-height":
			if px, ok := cssLengthToPx(value, height); ok && height > px {
				return false
			}
		case "prefers-color-scheme":
			if value != "" && value != v.colorScheme() {
				return false
			}
		default:
			// Unknown feature: assume it holds.
		}
	}
	return true
}

func cssLengthToPx(val string, base int) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(val))
	if v == "" {
		return 0, false
	}
	parse := func(s string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	switch {
	case strings.HasSuffix(v, "px"):
		if f, ok := parse(v[:len(v)-2]); ok {
			return int(f + 0.5), true
		}
	case strings.HasSuffix(v, "rem"):
		if f, ok := parse(v[:len(v)-3]); ok {
			return int(f*16.0 + 0.5), true
		}
	case strings.HasSuffix(v, "em"):
		if f, ok := parse(v[:len(v)-2]); ok {
			return int(f*16.0 + 0.5), true
		}
	case strings.HasSuffix(v, "vw"), strings.HasSuffix(v, "vh"):
		if base <= 0 {
			return 0, false
		}
		if f, ok := parse(v[:len(v)-2]); ok {
			return int(float64(base)*f/100.0 + 0.5), true
		}
	case strings.HasSuffix(v, "%"):
		if base <= 0 {
			return 0, false
		}
		if f, ok := parse(v[:len(v)-1]); ok {
			return int(float64(base)*f/100.0 + 0.5), true
		}
	default:
		if f, ok := parse(v); ok {
			return int(f + 0.5), true
		}
	}
	return 0, false
}

// knownProperties is the feature table behind @supports evaluation. It does
// not need to be exhaustive: an unknown property fails the test and the
// group is dropped, which only ever under-includes rules a degraded engine
// could not honor anyway.
var knownProperties = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		align-content align-items align-self all animation appearance
		aspect-ratio backdrop-filter background background-attachment
		background-clip background-color background-image background-origin
		background-position background-repeat background-size border
		border-collapse border-color border-radius border-spacing border-style
		border-width bottom box-shadow box-sizing caret-color clear clip
		clip-path color column-gap columns contain content cursor direction
		display filter flex flex-basis flex-direction flex-flow flex-grow
		flex-shrink flex-wrap float font font-family font-feature-settings
		font-size font-style font-variant font-weight gap grid grid-area
		grid-auto-columns grid-auto-flow grid-auto-rows grid-column
		grid-column-gap grid-gap grid-row grid-template grid-template-areas
		grid-template-columns grid-template-rows height inset isolation
		justify-content justify-items justify-self left letter-spacing
		line-height list-style margin mask max-height max-width min-height
		min-width mix-blend-mode object-fit object-position opacity order
		outline overflow overflow-wrap overflow-x overflow-y padding
		perspective pointer-events position resize right row-gap scroll-behavior
		tab-size table-layout text-align text-decoration text-indent
		text-overflow text-shadow text-transform top transform
		transform-origin transition user-select vertical-align visibility
		white-space width will-change word-break word-spacing word-wrap
		writing-mode z-index`) {
		knownProperties[p] = struct{}{}
	}
}

// SupportsActive evaluates an @supports condition against the known-property
// table. Handles not/and/or combinators loosely; a malformed condition fails.
func SupportsActive(cond string) bool {
	c := strings.TrimSpace(strings.ToLower(cond))
	if c == "" {
		return false
	}
	if strings.HasPrefix(c, "not ") {
		return !SupportsActive(c[4:])
	}
	if parts := splitTopLevel(c, " or "); len(parts) > 1 {
		for _, p := range parts {
			if SupportsActive(p) {
				return true
			}
		}
		return false
	}
	if parts := splitTopLevel(c, " and "); len(parts) > 1 {
		for _, p := range parts {
			if !SupportsActive(p) {
				return false
			}
		}
		return true
	}
	if strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")") {
		return SupportsActive(c[1 : len(c)-1])
	}
	if strings.HasPrefix(c, "selector(") {
		return false
	}
	prop, val, found := strings.Cut(c, ":")
	if !found || strings.TrimSpace(val) == "" {
		return false
	}
	prop = strings.TrimSpace(prop)
	if strings.HasPrefix(prop, "--") {
		return true
	}
	_, ok := knownProperties[prop]
	return ok
}

// splitTopLevel splits on sep only outside parentheses.
func splitTopLevel(s, sep string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && s[i:i+len(sep)] == sep {
			parts = append(parts, strings.TrimSpace(s[last:i]))
			last = i + len(sep)
			i += len(sep) - 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	return parts
}
