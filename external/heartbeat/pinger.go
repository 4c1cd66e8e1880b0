// Package heartbeat notifies a dead-man's-switch monitor that the refresh
// scheduler is still completing clean ticks. The monitor alarms on missing
// pings, which catches a wedged scheduler that error logs alone would not.
package heartbeat

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
)

const defaultPingTimeout = 5 * time.Second

// Pinger issues a GET against a monitor URL (healthchecks.io style) after
// each clean scheduler tick.
type Pinger struct {
	client  *http.Client
	pingURL string
}

func NewPinger(pingURL string, timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	return &Pinger{
		client:  &http.Client{Timeout: timeout},
		pingURL: strings.TrimSpace(pingURL),
	}
}

// Ping reports any failure to reach the monitor; callers decide whether a
// missed ping is worth more than a warning.
func (p *Pinger) Ping(ctx context.Context) error {
	target, err := validatePingURL(p.pingURL)
	if err != nil {
		return crerr.Wrap(err, "invalid HEARTBEAT_URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return crerr.Wrap(err, "create heartbeat request")
	}
	req.Header.Set("User-Agent", "tipoff-heartbeat/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return crerr.Wrap(err, "send heartbeat ping")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return crerr.Newf("heartbeat monitor returned status=%d", resp.StatusCode)
	}

	return nil
}

func validatePingURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}
