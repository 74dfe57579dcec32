package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/analytics"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/parser"
)

// ErrInvalidFormat is the user-facing error string for inputs that fail
// normalization. Such inputs never reach the network.
const ErrInvalidFormat = "invalid proxy format"

// Options configures a Checker. Zero values fall back to defaults.
type Options struct {
	// TestURL is the identity endpoint probed through each proxy. It must
	// answer with an ip-api.com shaped JSON document.
	TestURL string

	// Timeout is the default hard bound on one probe (connect + transfer).
	// Per-call timeouts passed to CheckSingle/CheckBatch override it.
	Timeout time.Duration

	// Resolver, when set, fills in country/city from a local database if
	// the identity endpoint reports an IP without usable geolocation.
	Resolver model.IPResolver

	Logger *slog.Logger
}

const (
	DefaultTestURL = "http://ip-api.com/json/"
	DefaultTimeout = 10 * time.Second
)

func (o Options) withDefaults() Options {
	if o.TestURL == "" {
		o.TestURL = DefaultTestURL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Checker verifies proxies by routing one GET through each of them to the
// identity endpoint. It holds no per-proxy state; no connection is reused
// across probes or across calls.
type Checker struct {
	testURL  string
	timeout  time.Duration
	resolver model.IPResolver
	log      *slog.Logger

	// transportFor builds the outbound round tripper for one proxy.
	// Tests swap it for an instrumented fake.
	transportFor func(model.ProxyAddress) (http.RoundTripper, error)
}

func New(opts Options) *Checker {
	opts = opts.withDefaults()
	return &Checker{
		testURL:      opts.TestURL,
		timeout:      opts.Timeout,
		resolver:     opts.Resolver,
		log:          opts.Logger,
		transportFor: buildTransport,
	}
}

// CheckSingle normalizes one proxy string and probes it. A normalization
// failure yields a failed outcome without any network attempt.
func (c *Checker) CheckSingle(ctx context.Context, proxy string, timeout time.Duration) model.ProbeOutcome {
	addr, err := parser.Normalize(proxy)
	if err != nil {
		c.log.Debug("proxy rejected by normalizer", "proxy", proxy, "err", err)
		return model.ProbeOutcome{
			Proxy:  proxy,
			Status: model.StatusFailed,
			Error:  ErrInvalidFormat,
		}
	}
	return c.Probe(ctx, addr, timeout)
}

// CheckBatch probes all proxies concurrently, at most maxConcurrent
// simultaneously in flight. The per-probe timeout applies independently to
// each probe; one stuck proxy never delays the others beyond its own
// deadline. Results keep input order regardless of completion order.
func (c *Checker) CheckBatch(ctx context.Context, proxies []string, timeout time.Duration, maxConcurrent int) model.BatchReport {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	batchID := uuid.NewString()
	start := time.Now()
	c.log.Debug("batch started", "batch_id", batchID, "size", len(proxies), "max_concurrent", maxConcurrent)

	// Each goroutine writes only to its own reserved slot, so the
	// semaphore is the only synchronization needed.
	results := make([]model.ProbeOutcome, len(proxies))
	sem := make(chan struct{}, maxConcurrent)
	wg := &sync.WaitGroup{}

	for i, raw := range proxies {
		addr, err := parser.Normalize(raw)
		if err != nil {
			results[i] = model.ProbeOutcome{
				Proxy:  raw,
				Status: model.StatusFailed,
				Error:  ErrInvalidFormat,
			}
			continue
		}

		wg.Add(1)
		go func(i int, addr model.ProxyAddress) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = c.Probe(ctx, addr, timeout)
		}(i, addr)
	}

	wg.Wait()

	report := analytics.Aggregate(results)
	c.log.Info("batch finished",
		"batch_id", batchID,
		"total", report.Total,
		"working", report.Working,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report
}

// identityResponse matches the fields we care about from the identity
// endpoint (ip-api.com/json shape). status=="fail" means the endpoint
// itself could not classify the caller and is treated as a failed probe.
type identityResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Query   string `json:"query"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Probe issues exactly one GET to the identity endpoint through addr,
// bounded by timeout (the Checker default when <= 0). The measured
// response time spans request start to the final body byte.
func (c *Checker) Probe(ctx context.Context, addr model.ProxyAddress, timeout time.Duration) model.ProbeOutcome {
	out := model.ProbeOutcome{
		Proxy:  addr.Raw,
		Status: model.StatusFailed,
	}

	rt, err := c.transportFor(addr)
	if err != nil {
		out.Error = "client build error: " + err.Error()
		return out
	}
	client := &http.Client{Transport: rt}

	if timeout <= 0 {
		timeout = c.timeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.testURL, nil)
	if err != nil {
		out.Error = "client build error: " + err.Error()
		return out
	}

	resp, err := client.Do(req)
	if err != nil {
		out.Error = classify(err)
		return out
	}
	defer resp.Body.Close()

	// Rogue proxies can stream unbounded garbage; cap what we read.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	elapsed := time.Since(start)
	if err != nil {
		out.Error = classify(err)
		return out
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return out
	}

	var id identityResponse
	if jsonErr := json.Unmarshal(body, &id); jsonErr == nil {
		if id.Status == "fail" {
			msg := "identity endpoint reported failure"
			if id.Message != "" {
				msg += ": " + id.Message
			}
			out.Error = msg
			return out
		}
		out.IPAddress = id.Query
		out.Country = id.Country
		out.City = id.City
		c.enrichGeo(&out)
	}
	// An undecodable body downgrades gracefully: the proxy did reach the
	// endpoint, so the probe is still working, just without geo fields.

	out.Status = model.StatusWorking
	seconds := roundSeconds(elapsed)
	out.ResponseTime = &seconds

	c.log.Debug("probe working",
		"proxy", addr.Raw,
		"response_time", seconds,
		"ip", out.IPAddress,
	)
	return out
}

// enrichGeo fills missing country/city from the local resolver, if one is
// configured. Resolver failures leave the fields absent.
func (c *Checker) enrichGeo(out *model.ProbeOutcome) {
	if c.resolver == nil || out.IPAddress == "" {
		return
	}
	if out.Country != "" && out.City != "" {
		return
	}
	info, err := c.resolver.Lookup(out.IPAddress)
	if err != nil {
		c.log.Debug("geo lookup failed", "ip", out.IPAddress, "err", err)
		return
	}
	if out.Country == "" {
		out.Country = info.Country
	}
	if out.City == "" {
		out.City = info.City
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
