package capture

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"pagefreeze/snap"
)

// Session owns a headless browser allocator shared by captures. One capture
// runs at a time; callers serialize invocations.
type Session struct {
	allocator context.Context
	cancel    context.CancelFunc
	logger    *log.Logger

	// Timeout bounds one whole capture, zero means the default.
	Timeout time.Duration
}

const defaultCaptureTimeout = 45 * time.Second

// NewSession starts a headless allocator configured for capture work.
func NewSession(logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-extensions", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Session{
		allocator: allocCtx,
		cancel:    cancel,
		logger:    logger,
	}, nil
}

// Close tears the allocator down.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// pageInfo is what the inventory script reports back from the live page.
type pageInfo struct {
	Title    string      `json:"title"`
	Doctype  string      `json:"doctype"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Scheme   string      `json:"scheme"`
	FinalURL string      `json:"finalUrl"`
	Sheets   []sheetInfo `json:"sheets"`
}

type sheetInfo struct {
	Href    string `json:"href"`
	Blocked bool   `json:"blocked"`
	CSS     string `json:"css"`
}

// Capture freezes the page at target, collects applied styles per opts, and
// assembles the standalone document. withShot additionally grabs a full
// viewport screenshot for thumbnailing.
func (s *Session) Capture(ctx context.Context, target string, opts snap.Options, withShot bool) (*snap.Result, []byte, error) {
	if strings.TrimSpace(target) == "" {
		return nil, nil, fmt.Errorf("capture: empty target url")
	}

	taskCtx, cancelTab := chromedp.NewContext(s.allocator)
	defer cancelTab()

	if ctx != nil {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithCancel(taskCtx)
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-taskCtx.Done():
			}
		}()
		defer cancel()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, timeout)
	defer cancelTimeout()

	var info pageInfo
	var markup string
	var shot []byte

	actions := []chromedp.Action{
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		evaluate(freezeJS, nil),
		evaluate(pauseMediaJS, nil),
		awaitPromise(doubleRafJS, nil),
		evaluate(inventoryJS, &info),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	}
	if withShot {
		actions = append(actions, chromedp.CaptureScreenshot(&shot))
	}

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, nil, fmt.Errorf("capture %s: %w", target, err)
	}
	// Unfreeze the live page before the tab goes away. Best effort: the page
	// may already be navigating.
	if err := chromedp.Run(taskCtx, evaluate(unfreezeJS, nil)); err != nil {
		s.logger.Printf("CAPTURE unfreeze failed: %v", err)
	}

	if strings.TrimSpace(markup) == "" {
		return nil, nil, fmt.Errorf("capture %s: no document found", target)
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, nil, fmt.Errorf("capture %s: parse markup: %w", target, err)
	}

	pageURL := info.FinalURL
	if pageURL == "" {
		pageURL = target
	}

	collected := ""
	var warnings []snap.Warning
	if opts.RemoveOriginalStyles {
		engine := &snap.Engine{
			Matcher: snap.NewMatcher(doc),
			Fetcher: s.fetcherFor(taskCtx, opts),
			Viewport: snap.Viewport{
				Width:       info.Width,
				Height:      info.Height,
				ColorScheme: info.Scheme,
			},
			Logger: s.logger,
		}
		collected, warnings = engine.Collect(taskCtx, buildSources(info.Sheets, pageURL))
	}

	doctype := strings.TrimSpace(info.Doctype)
	text, err := snap.Assemble(doc, collected, doctype, opts)
	if err != nil {
		return nil, nil, err
	}
	return &snap.Result{
		DocumentText: text,
		Warnings:     warnings,
		Title:        info.Title,
	}, shot, nil
}

func (s *Session) fetcherFor(taskCtx context.Context, opts snap.Options) snap.Fetcher {
	if opts.UseRelay {
		return &snap.RelayFetcher{Channel: &pageRelay{tab: taskCtx, logger: s.logger}}
	}
	return &snap.DirectFetcher{}
}

// buildSources converts the in-page stylesheet inventory into engine sources.
// Accessible sheets arrive as reassembled rule text; blocked ones only as an
// address for the fallback fetch path.
func buildSources(sheets []sheetInfo, pageURL string) []*snap.Source {
	sources := make([]*snap.Source, 0, len(sheets))
	for i, sheet := range sheets {
		base := sheet.Href
		if base == "" {
			base = pageURL
		}
		src := &snap.Source{Href: sheet.Href, Base: base, Index: i, Blocked: sheet.Blocked}
		if !sheet.Blocked {
			text := sheet.CSS
			if sheet.Href != "" {
				text = snap.AbsolutizeURLs(text, sheet.Href)
			} else {
				text = snap.AbsolutizeURLs(text, pageURL)
			}
			if rules, err := snap.ParseRules(text); err == nil {
				src.Rules = rules
			} else if sheet.Href != "" {
				// Unparseable readable sheet: let the engine refetch it.
				src.Blocked = true
			}
		}
		sources = append(sources, src)
	}
	return sources
}
