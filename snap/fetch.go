package snap

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FetchResult is the uniform outcome of a stylesheet retrieval. Fetchers
// classify, they do not raise: a failed fetch is data, not an error.
type FetchResult struct {
	OK   bool
	Text string
	Err  string
}

// Fetcher retrieves stylesheet text for the collection engine's blocked-source
// fallback and for @import resolution.
type Fetcher interface {
	FetchCSS(ctx context.Context, address string) FetchResult
}

// DirectFetcher issues the retrieval itself with ambient credentials: the
// capture's cookie jar and a subset of the original request headers ride
// along. Any non-2xx status is a failure.
type DirectFetcher struct {
	Client *http.Client
	Header http.Header
	Jar    http.CookieJar
}

func (f *DirectFetcher) FetchCSS(ctx context.Context, address string) FetchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return FetchResult{Err: fmt.Sprintf("bad stylesheet address: %v", err)}
	}
	req.Header.Set("Accept", "text/css,*/*;q=0.1")
	for k, vals := range f.Header {
		if strings.EqualFold(k, "Accept") {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	if f.Jar != nil && client.Jar == nil {
		jarred := *client
		jarred.Jar = f.Jar
		client = &jarred
	}

	resp, err := client.Do(req)
	if err != nil {
		return FetchResult{Err: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FetchResult{Err: fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode, address)}
	}

	rc := io.ReadCloser(resp.Body)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		if gr, err := gzip.NewReader(resp.Body); err == nil {
			rc = gr
			defer gr.Close()
		}
	case "deflate":
		if zr, err := zlib.NewReader(resp.Body); err == nil {
			rc = zr
			defer zr.Close()
		} else if fr := flate.NewReader(resp.Body); fr != nil {
			rc = io.NopCloser(fr)
			defer fr.Close()
		}
	}
	body, err := io.ReadAll(rc)
	if err != nil {
		return FetchResult{Err: err.Error()}
	}
	return FetchResult{OK: true, Text: string(body)}
}

// RelayRequest is the typed message sent to a privileged context that fetches
// on the capture's behalf.
type RelayRequest struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
}

// RelayResponse is the privileged side's structured answer.
type RelayResponse struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// RelayKindFetchCSS tags stylesheet retrieval requests on the relay channel.
const RelayKindFetchCSS = "FETCH_CSS"

// DefaultRelayTimeout bounds how long a single relay round trip may take.
// A privileged side that never answers costs at most this much per source.
const DefaultRelayTimeout = 3000 * time.Millisecond

const relayFailureMessage = "Background fetch failed"

// RelayChannel carries one request to the privileged context. The returned
// channel yields at most one response; closing it without a value counts as
// a missing response.
type RelayChannel interface {
	Send(ctx context.Context, req RelayRequest) <-chan RelayResponse
}

// RelayFetcher resolves stylesheet text through a privileged relay channel,
// racing the response against a fixed timer. Whatever goes wrong on the
// channel, the caller sees a classified failure, never an error.
type RelayFetcher struct {
	Channel RelayChannel
	Timeout time.Duration
}

func (f *RelayFetcher) FetchCSS(ctx context.Context, address string) FetchResult {
	if f.Channel == nil {
		return FetchResult{Err: relayFailureMessage}
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultRelayTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	respCh := f.Channel.Send(ctx, RelayRequest{Kind: RelayKindFetchCSS, Address: address})
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return FetchResult{Err: relayFailureMessage}
		}
		return classifyRelayResponse(resp)
	case <-timer.C:
		return FetchResult{Err: fmt.Sprintf("relay timed out after %s fetching %s", timeout, address)}
	case <-ctx.Done():
		return FetchResult{Err: relayFailureMessage}
	}
}

func classifyRelayResponse(resp RelayResponse) FetchResult {
	if !resp.OK {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = relayFailureMessage
		}
		return FetchResult{Err: msg}
	}
	return FetchResult{OK: true, Text: resp.Text}
}
