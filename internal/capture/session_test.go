package capture

import "testing"

func TestBuildSources(t *testing.T) {
	t.Parallel()
	sheets := []sheetInfo{
		{Href: "", Blocked: false, CSS: ".inline { color: red; }"},
		{Href: "https://cdn.example.com/app.css", Blocked: false, CSS: ".linked { background: url(bg.png); }"},
		{Href: "https://other.example.com/theme.css", Blocked: true},
	}
	sources := buildSources(sheets, "https://example.com/page")
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}

	if sources[0].Href != "" || sources[0].Rules == nil || sources[0].Base != "https://example.com/page" {
		t.Fatalf("inline sheet: %#v", sources[0])
	}
	if sources[1].Rules == nil || sources[1].Base != "https://cdn.example.com/app.css" {
		t.Fatalf("linked sheet: %#v", sources[1])
	}
	// References in readable linked sheets are absolutized against the sheet.
	found := false
	for _, rule := range sources[1].Rules {
		for _, decl := range rule.Declarations {
			if decl.Value == `url("https://cdn.example.com/bg.png")` {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("linked sheet references not absolutized: %#v", sources[1].Rules)
	}
	if !sources[2].Blocked || sources[2].Rules != nil {
		t.Fatalf("blocked sheet must stay address-only: %#v", sources[2])
	}
	for i, src := range sources {
		if src.Index != i {
			t.Fatalf("source %d has index %d", i, src.Index)
		}
	}
}
