package snap

import (
	"strings"
	"testing"
)

func TestAssembleRemovesScriptsAndStyles(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head>
		<script src="app.js"></script>
		<link rel="preload" as="script" href="chunk.js">
		<link rel="modulepreload" href="mod.js">
		<link rel="stylesheet" href="app.css">
		<link rel="preload" as="style" href="late.css">
		<style>.old{}</style>
	</head><body><div class="a">x</div></body></html>`)

	out, err := Assemble(doc, ".a { color: red; }", "", Options{
		RemoveScripts:        true,
		RemoveOriginalStyles: true,
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, gone := range []string{"<script", "app.css", "late.css", "chunk.js", "mod.js", ".old{}"} {
		if strings.Contains(out, gone) {
			t.Fatalf("output should not contain %q:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, "<style>.a { color: red; }</style>") {
		t.Fatalf("output should carry the collected style element:\n%s", out)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("missing default doctype:\n%s", out)
	}
}

func TestAssembleKeepsContentByDefault(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head><script>x()</script><style>.s{}</style></head>
		<body><p>text</p></body></html>`)

	out, err := Assemble(doc, "", "", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(out, "<script>") || !strings.Contains(out, ".s{}") {
		t.Fatalf("default options keep scripts and styles:\n%s", out)
	}
	if strings.Contains(out, "Content-Security-Policy") {
		t.Fatalf("no policy tag unless requested:\n%s", out)
	}
}

func TestAssembleAddsSinglePolicyTag(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head><title>t</title></head><body></body></html>`)

	out, err := Assemble(doc, "", "", Options{AddPolicy: true})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if strings.Count(out, "Content-Security-Policy") != 1 {
		t.Fatalf("expected exactly one policy meta tag:\n%s", out)
	}
	if !strings.Contains(out, "script-src &#39;none&#39;") && !strings.Contains(out, "script-src 'none'") {
		t.Fatalf("policy must deny script execution:\n%s", out)
	}
}

func TestAssembleDropsBaseAndMarkedElements(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head>
		<base href="https://example.com/">
		<style data-pagefreeze-ignore="1">*{animation:none}</style>
	</head><body><div data-pagefreeze-ignore="1">helper ui</div><p>keep</p></body></html>`)

	out, err := Assemble(doc, "", "", Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if strings.Contains(out, "<base") || strings.Contains(out, "helper ui") || strings.Contains(out, "animation:none") {
		t.Fatalf("base and marked elements must be pruned:\n%s", out)
	}
	if !strings.Contains(out, "<p>keep</p>") {
		t.Fatalf("unrelated content must survive:\n%s", out)
	}
}

func TestAssembleLeavesInputUntouched(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head><script>x()</script></head><body></body></html>`)
	if _, err := Assemble(doc, "", "", Options{RemoveScripts: true}); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if findElement(doc, "script") == nil {
		t.Fatal("assemble must operate on a clone, not the live tree")
	}
}

func TestAssembleUsesProvidedDoctype(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><head></head><body></body></html>`)
	out, err := Assemble(doc, "", `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN">`, Options{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.HasPrefix(out, `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN">`) {
		t.Fatalf("provided doctype must lead the document:\n%s", out)
	}
}

func TestAssembleNilDoc(t *testing.T) {
	t.Parallel()
	if _, err := Assemble(nil, "", "", Options{}); err == nil {
		t.Fatal("expected error for missing document tree")
	}
}

func TestDoctypeString(t *testing.T) {
	t.Parallel()
	withDoctype := parseDoc(t, "<!DOCTYPE html><html><head></head><body></body></html>")
	if got := DoctypeString(withDoctype); got != "<!DOCTYPE html>" {
		t.Fatalf("DoctypeString = %q", got)
	}
	without := parseDoc(t, "<html><head></head><body></body></html>")
	if got := DoctypeString(without); got != DefaultDoctype {
		t.Fatalf("missing doctype should fall back to default, got %q", got)
	}
}

func TestDocumentTitle(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, "<html><head><title>  My Page </title></head><body></body></html>")
	if got := DocumentTitle(doc); got != "My Page" {
		t.Fatalf("DocumentTitle = %q", got)
	}
	if got := DocumentTitle(parseDoc(t, "<html><body></body></html>")); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}
