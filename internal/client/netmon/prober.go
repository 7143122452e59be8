package netmon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/netx"
)

// Prober performs one side-effect-free reachability check. A nil error
// means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// DefaultProbeTimeout bounds a single HTTP probe.
const DefaultProbeTimeout = 5 * time.Second

// HTTPProber issues a HEAD request and treats any 2xx answer as online.
// Servers that refuse HEAD with 405 are retried with GET.
type HTTPProber struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProber{URL: url, Timeout: timeout, Client: &http.Client{}}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	status, err := netx.Status(ctx, p.Client, http.MethodHead, p.URL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = netx.Status(ctx, p.Client, http.MethodGet, p.URL)
	}
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("probe %s: unexpected status %d", p.URL, status)
	}
	return nil
}

// Pinger is implemented by the authoritative store client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingProber probes by pinging the authoritative store itself.
type PingProber struct {
	Pinger  Pinger
	Timeout time.Duration
}

func NewPingProber(p Pinger, timeout time.Duration) *PingProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &PingProber{Pinger: p, Timeout: timeout}
}

func (p *PingProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return p.Pinger.Ping(ctx)
}
