// internal/endpoint/probe.go
package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tamzrod/devicecfg/internal/config"
	"github.com/tamzrod/devicecfg/internal/retry"
)

// DeviceIDHeader carries the device identity on every backend request.
const DeviceIDHeader = "X-Device-Id"

const defaultTimeout = 10 * time.Second

// Result is the outcome of probing one endpoint.
type Result struct {
	Name       string
	URL        string
	StatusCode int
	Attempts   int
	Latency    time.Duration
	Err        error
}

// Reachable reports whether the backend answered below 500.
func (r Result) Reachable() bool {
	return r.Err == nil && r.StatusCode > 0 && r.StatusCode < http.StatusInternalServerError
}

// Warnings lists findings on a reachable endpoint that still look wrong.
// A 404 means the host answered but the backend has no such route.
func (r Result) Warnings() []string {
	if r.Err == nil && r.StatusCode == http.StatusNotFound {
		return []string{fmt.Sprintf("HTTP 404 from %s: backend has no such route, check the path", r.URL)}
	}
	return nil
}

// Options tune a Prober. Zero values take defaults.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client // overrides transport (tests, custom CA)
	Logger     resty.Logger // e.g. a *logrus.Logger
}

// Prober checks that backend endpoints answer, under the device retry policy.
type Prober struct {
	client *resty.Client
}

// NewProber builds a prober that identifies as deviceID.
func NewProber(deviceID string, policy retry.Policy, opt Options) *Prober {
	var c *resty.Client
	if opt.HTTPClient != nil {
		c = resty.NewWithClient(opt.HTTPClient)
	} else {
		c = resty.New()
	}

	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if opt.Logger != nil {
		c.SetLogger(opt.Logger)
	}

	c.SetTimeout(timeout).
		SetHeader(DeviceIDHeader, deviceID).
		SetHeader("User-Agent", "devicecfg/"+deviceID).
		SetRetryCount(policy.Attempts() - 1).
		SetRetryWaitTime(policy.Delay).
		SetRetryMaxWaitTime(policy.Delay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &Prober{client: c}
}

// Probe issues one HEAD (with retries) against a single URL.
func (p *Prober) Probe(ctx context.Context, ep config.Endpoint) Result {
	res := Result{Name: ep.Name, URL: ep.URL}

	start := time.Now()
	resp, err := p.client.R().SetContext(ctx).Head(ep.URL)
	res.Latency = time.Since(start)

	if resp != nil {
		res.StatusCode = resp.StatusCode()
		if resp.Request != nil {
			res.Attempts = resp.Request.Attempt
		}
	}
	if res.Attempts == 0 {
		res.Attempts = 1
	}

	switch {
	case err != nil:
		res.Err = fmt.Errorf("endpoint %s: %w", ep.Name, err)
	case res.StatusCode >= http.StatusInternalServerError:
		res.Err = fmt.Errorf("endpoint %s: server error %d after %d attempts", ep.Name, res.StatusCode, res.Attempts)
	}

	return res
}

// ProbeAll probes every endpoint concurrently. Results keep input order.
func (p *Prober) ProbeAll(ctx context.Context, eps []config.Endpoint) []Result {
	out := make([]Result, len(eps))

	var wg sync.WaitGroup
	for i, ep := range eps {
		wg.Add(1)
		go func(i int, ep config.Endpoint) {
			defer wg.Done()
			out[i] = p.Probe(ctx, ep)
		}(i, ep)
	}
	wg.Wait()

	return out
}
