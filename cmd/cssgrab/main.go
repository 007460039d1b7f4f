package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"golang.org/x/net/html"

	"pagefreeze/snap"
)

// cssgrab fetches a page without a browser and prints the style text the
// collection engine keeps for it. Handy for debugging relevance filtering
// against a specific site.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cssgrab <url>")
		os.Exit(2)
	}
	target := os.Args[1]
	log.Printf("fetch %s", target)

	req, _ := http.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "cssgrab/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	doc, err := html.Parse(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	engine := &snap.Engine{
		Matcher: snap.NewMatcher(doc),
		Fetcher: &snap.DirectFetcher{},
		Logger:  log.Default(),
	}
	text, warnings := engine.Collect(context.Background(), snap.InventorySources(doc, target))
	for _, w := range warnings {
		log.Printf("warning: %s", w.Message)
	}
	fmt.Println(text)
}
