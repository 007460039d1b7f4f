package snap

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestMatcherRelevant(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head></head><body>
		<div class="a" id="main"><p class="note">hi</p></div>
		<ul><li>one</li><li>two</li></ul>
		<input type="checkbox">
	</body></html>`)
	m := NewMatcher(doc)

	tests := []struct {
		name string
		sel  string
		want bool
	}{
		{name: "class present", sel: ".a", want: true},
		{name: "class absent", sel: ".b", want: false},
		{name: "id present", sel: "#main", want: true},
		{name: "descendant", sel: "div p.note", want: true},
		{name: "structural pseudo", sel: "li:first-child", want: true},
		{name: "hover falls back to base", sel: ".a:hover", want: true},
		{name: "hover on absent base", sel: ".b:hover", want: false},
		{name: "pseudo element falls back", sel: ".note::before", want: true},
		{name: "compound any clause", sel: ".missing, ul li", want: true},
		{name: "compound no clause", sel: ".missing, .alsomissing", want: false},
		{name: "checked falls back to input", sel: "input:checked", want: true},
		{name: "garbage selector", sel: "][", want: false},
		{name: "empty", sel: "", want: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Relevant(tc.sel); got != tc.want {
				t.Fatalf("Relevant(%q) = %v, want %v", tc.sel, got, tc.want)
			}
		})
	}
}

func TestMatcherNilDoc(t *testing.T) {
	t.Parallel()
	m := &Matcher{}
	if m.Relevant("div") {
		t.Fatal("matcher without a document must match nothing")
	}
}
