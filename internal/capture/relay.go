package capture

import (
	"context"
	"encoding/json"
	"log"

	"github.com/chromedp/chromedp"

	"pagefreeze/snap"
)

// pageRelay carries fetch requests into the page's own execution context
// over the devtools protocol. The page fetches with its ambient credentials,
// classifies the outcome itself, and answers with the structured relay
// response shape.
type pageRelay struct {
	tab    context.Context
	logger *log.Logger
}

func (r *pageRelay) Send(ctx context.Context, req snap.RelayRequest) <-chan snap.RelayResponse {
	ch := make(chan snap.RelayResponse, 1)
	if req.Kind != snap.RelayKindFetchCSS {
		ch <- snap.RelayResponse{OK: false, Error: "unsupported relay request kind " + req.Kind}
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		addr, err := json.Marshal(req.Address)
		if err != nil {
			ch <- snap.RelayResponse{OK: false, Error: err.Error()}
			return
		}
		expr := "(" + relayFetchJS + ")(" + string(addr) + ")"
		var resp snap.RelayResponse
		if err := chromedp.Run(r.tab, awaitPromise(expr, &resp)); err != nil {
			if r.logger != nil {
				r.logger.Printf("RELAY fetch %s failed: %v", req.Address, err)
			}
			ch <- snap.RelayResponse{OK: false, Error: err.Error()}
			return
		}
		ch <- resp
	}()
	return ch
}
