package liveness

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/bmclean/internal/bookmark"
	"github.com/nao1215/bmclean/internal/document"
	"github.com/nao1215/bmclean/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultUserAgent is a desktop browser identity. Some sites answer
	// unknown clients with 403 or 404, which would misclassify them.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultConcurrency is the default number of probes in flight.
	DefaultConcurrency = 16

	// maxDrainBytes bounds how much of a response body is read before the
	// connection is returned to the pool.
	maxDrainBytes = 64 << 10
)

// browserHeaders are sent with every probe.
var browserHeaders = [][2]string{
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.5"},
	{"DNT", "1"},
	{"Upgrade-Insecure-Requests", "1"},
}

// Result is the outcome of checking an index.
type Result struct {
	// Probes holds one result per unique URL, in index order.
	Probes []model.ProbeResult

	// Outdated holds every dead URL with its full node list.
	Outdated *bookmark.Index
}

// Checker probes bookmark URLs.
type Checker struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	concurrency int
	timeout     time.Duration
	reporter    model.Reporter
	logger      *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) {
		if c != nil {
			ch.client = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(ch *Checker) {
		if ua != "" {
			ch.userAgent = ua
		}
	}
}

// WithHeaders adds extra request headers. They override the built-in
// browser headers with the same name.
func WithHeaders(h map[string]string) Option {
	return func(ch *Checker) {
		for k, v := range h {
			ch.headers[k] = v
		}
	}
}

// WithConcurrency sets the maximum number of probes in flight.
// Zero means no limit. Negative values are ignored.
func WithConcurrency(n int) Option {
	return func(ch *Checker) {
		if n >= 0 {
			ch.concurrency = n
		}
	}
}

// WithTimeout sets the per-request timeout used when no client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(ch *Checker) {
		if d > 0 {
			ch.timeout = d
		}
	}
}

// WithReporter sets the sink for probe events.
func WithReporter(r model.Reporter) Option {
	return func(ch *Checker) {
		if r != nil {
			ch.reporter = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ch *Checker) {
		if logger != nil {
			ch.logger = logger
		}
	}
}

// NewChecker creates a Checker. Without WithHTTPClient a client with the
// configured timeout and no proxy is created.
func NewChecker(opts ...Option) *Checker {
	ch := &Checker{
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		reporter:    model.NopReporter{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.client == nil {
		// Without a proxy NewHTTPClient cannot fail.
		ch.client, _ = NewHTTPClient(ch.timeout, "") //nolint:errcheck // no proxy given
	}
	return ch
}

// Observed returns a copy of ch that also sends its probe events to r.
// The receiver keeps its own reporter unchanged.
func (ch *Checker) Observed(r model.Reporter) *Checker {
	if r == nil {
		return ch
	}
	if _, nop := r.(model.NopReporter); nop {
		return ch
	}
	c := *ch
	c.reporter = model.MultiReporter{ch.reporter, r}
	return &c
}

// Check probes every unique URL in idx once and collects the dead ones.
// Probe failures never abort the check. An empty index makes no requests.
func (ch *Checker) Check(ctx context.Context, idx *bookmark.Index) *Result {
	urls := idx.URLs()
	probes := make([]model.ProbeResult, len(urls))

	if len(urls) > 0 {
		ch.logger.Info("checking URLs", "unique_urls", len(urls), "concurrency", ch.concurrency)

		var g errgroup.Group
		if ch.concurrency > 0 {
			g.SetLimit(ch.concurrency)
		}
		for i, url := range urls {
			g.Go(func() error {
				probes[i] = ch.Probe(ctx, url)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // probes never return errors
	}

	outdated := make(map[string]bool)
	for _, p := range probes {
		if p.IsDead() {
			outdated[p.URL] = true
		}
	}

	return &Result{
		Probes: probes,
		Outdated: idx.Filter(func(url string, _ []document.NodeID) bool {
			return outdated[url]
		}),
	}
}

// Probe issues one GET request for url and classifies the outcome.
func (ch *Checker) Probe(ctx context.Context, url string) model.ProbeResult {
	ch.reporter.Report(model.Event{Kind: model.EventProbeStarted, URL: url})

	start := time.Now()
	result := ch.probe(ctx, url)
	result.Elapsed = time.Since(start)

	switch result.Status {
	case model.StatusDead:
		ch.logger.Info("URL not found", "url", url)
	case model.StatusError:
		ch.logger.Debug("probe failed", "url", url, "error", result.Error)
	default:
		ch.logger.Debug("URL alive", "url", url, "status", result.StatusCode)
	}

	ch.reporter.Report(model.Event{Kind: model.EventURLClassified, URL: url, Result: &result})
	return result
}

func (ch *Checker) probe(ctx context.Context, url string) model.ProbeResult {
	result := model.ProbeResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Status = model.StatusError
		result.Error = err.Error()
		return result
	}
	req.Header.Set("User-Agent", ch.userAgent)
	for _, h := range browserHeaders {
		req.Header.Set(h[0], h[1])
	}
	for k, v := range ch.headers {
		req.Header.Set(k, v)
	}

	resp, err := ch.client.Do(req)
	if err != nil {
		result.Status = model.StatusError
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)) //nolint:errcheck // body content is unused

	result.StatusCode = resp.StatusCode
	result.Status = Classify(resp.StatusCode)
	return result
}

// Classify maps an HTTP status code to a liveness status.
// Only 404 means dead.
func Classify(code int) model.Status {
	if code == http.StatusNotFound {
		return model.StatusDead
	}
	return model.StatusAlive
}
