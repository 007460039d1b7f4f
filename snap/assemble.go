package snap

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options selects what the assembler strips from and adds to the snapshot.
// All combinations are valid.
type Options struct {
	RemoveScripts        bool
	RemoveOriginalStyles bool
	UseRelay             bool
	AddPolicy            bool
}

// Result is the finished capture: one standalone document plus whatever
// warnings collection produced. Nothing mutates it after return.
type Result struct {
	DocumentText string
	Warnings     []Warning
	Title        string
}

// MarkerAttr tags elements this tool itself injected into the live page.
// The assembler drops every element carrying it, so none of the capture
// scaffolding leaks into the snapshot.
const MarkerAttr = "data-pagefreeze-ignore"

// DefaultDoctype is used when the live document carries no doctype node.
const DefaultDoctype = "<!DOCTYPE html>"

const policyContent = "default-src 'self' data:; script-src 'none'; object-src 'none'"

// Assemble clones the captured tree, prunes what the options ask for,
// injects the collected style text, and serializes the result to one
// standalone document string. The input tree is never modified.
func Assemble(doc *html.Node, collected, doctype string, opts Options) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("assemble: no document tree")
	}
	clone := cloneTree(doc)

	removeNodes(clone, func(n *html.Node) bool {
		if isElement(n, "base") {
			return true
		}
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, MarkerAttr) {
				return true
			}
		}
		return false
	})

	if opts.RemoveScripts {
		removeNodes(clone, func(n *html.Node) bool {
			return isElement(n, "script") || isScriptPreload(n)
		})
	}
	if opts.RemoveOriginalStyles {
		removeNodes(clone, func(n *html.Node) bool {
			return isElement(n, "style") ||
				(isElement(n, "link") && isStylesheetLink(n)) ||
				isStylePreload(n)
		})
	}

	head := findElement(clone, "head")
	if head != nil && collected != "" {
		style := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Style,
			Data:     "style",
		}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: collected})
		head.AppendChild(style)
	}
	if head != nil && opts.AddPolicy {
		head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Meta,
			Data:     "meta",
			Attr: []html.Attribute{
				{Key: "http-equiv", Val: "Content-Security-Policy"},
				{Key: "content", Val: policyContent},
			},
		})
	}

	if strings.TrimSpace(doctype) == "" {
		doctype = DefaultDoctype
	}

	var b strings.Builder
	if err := renderTree(&b, clone); err != nil {
		return "", fmt.Errorf("assemble: serialize: %w", err)
	}
	markup := b.String()
	if strings.TrimSpace(markup) == "" {
		return "", fmt.Errorf("assemble: serialization produced no markup")
	}
	return doctype + "\n" + markup, nil
}

// renderTree serializes the element subtree, skipping any document-level
// wrapper and doctype nodes (the caller prepends its own doctype).
func renderTree(b *strings.Builder, n *html.Node) error {
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.DoctypeNode {
				continue
			}
			if err := html.Render(b, c); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(b, n)
}

func isScriptPreload(n *html.Node) bool {
	if !isElement(n, "link") {
		return false
	}
	rel := strings.ToLower(strings.TrimSpace(getAttr(n, "rel")))
	if rel == "modulepreload" {
		return true
	}
	as := strings.ToLower(strings.TrimSpace(getAttr(n, "as")))
	return rel == "preload" && as == "script"
}

func isStylePreload(n *html.Node) bool {
	if !isElement(n, "link") {
		return false
	}
	rel := strings.ToLower(strings.TrimSpace(getAttr(n, "rel")))
	as := strings.ToLower(strings.TrimSpace(getAttr(n, "as")))
	return rel == "preload" && as == "style"
}

// DoctypeString rebuilds a doctype declaration from a parsed doctype node,
// or returns the default when the tree has none.
func DoctypeString(doc *html.Node) string {
	if doc == nil {
		return DefaultDoctype
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.DoctypeNode {
			continue
		}
		var b strings.Builder
		b.WriteString("<!DOCTYPE ")
		b.WriteString(c.Data)
		var public, system string
		for _, a := range c.Attr {
			switch a.Key {
			case "public":
				public = a.Val
			case "system":
				system = a.Val
			}
		}
		if public != "" {
			b.WriteString(` PUBLIC "` + public + `"`)
			if system != "" {
				b.WriteString(` "` + system + `"`)
			}
		} else if system != "" {
			b.WriteString(` SYSTEM "` + system + `"`)
		}
		b.WriteString(">")
		return b.String()
	}
	return DefaultDoctype
}

// DocumentTitle extracts the text of the first <title> element.
func DocumentTitle(doc *html.Node) string {
	title := findElement(doc, "title")
	if title == nil {
		return ""
	}
	var b strings.Builder
	for c := title.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}
