package curation

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	domaincuration "github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errWebhookTransient = crerr.New("curation webhook transient failure")

type WebhookPublisherConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher pushes audit events to the curation team's inbox. The
// engine treats the webhook as best-effort: publish failures are logged by
// the caller and never block reconciliation.
type WebhookPublisher struct {
	client  *http.Client
	url     string
	token   string
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *logging.Logger) *WebhookPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &WebhookPublisher{
		client:  &http.Client{Timeout: timeout},
		url:     strings.TrimSpace(cfg.URL),
		token:   strings.TrimSpace(cfg.Token),
		logger:  logger,
		breaker: resilience.NewBreakerFromConfig("curation-webhook", cfg.CircuitBreaker),
	}
}

// eventPayload is the wire shape curation tooling consumes.
type eventPayload struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	ScopeKey   string   `json:"scope_key"`
	DedupKey   string   `json:"dedup_key,omitempty"`
	RawNames   []string `json:"raw_names"`
	Confidence string   `json:"confidence,omitempty"`
	ProspectID string   `json:"prospect_id,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

func (p *WebhookPublisher) Publish(ctx context.Context, event domaincuration.AuditEvent) error {
	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "curation webhook circuit breaker rejected publish", "state", p.breaker.State())
			return fmt.Errorf("curation webhook is temporarily unavailable: %w", err)
		}
	}

	webhookURL, err := validateHTTPURL(p.url)
	if err != nil {
		return crerr.Wrap(err, "invalid CURATION_WEBHOOK_URL")
	}

	body, err := sonic.Marshal(eventPayload{
		ID:         event.ID,
		Kind:       event.Kind,
		ScopeKey:   event.ScopeKey,
		DedupKey:   event.DedupKey,
		RawNames:   event.RawNames,
		Confidence: event.Confidence,
		ProspectID: event.ProspectID,
		CreatedAt:  event.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return crerr.Wrap(err, "marshal audit event payload")
	}

	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildCurlPreview(webhookURL, event.ID, bodyText, p.token != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("curation.webhook_url", webhookURL),
			attribute.String("curation.event_id", event.ID),
			attribute.String("curation.event_kind", event.Kind),
			attribute.String("curation.request_curl_preview", curlPreview),
		)
	}
	p.logger.InfoContext(ctx, "curation webhook publish",
		"event_id", event.ID,
		"event_kind", event.Kind,
		"curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	// The event id doubles as an idempotency key so retried deliveries
	// collapse on the receiving side.
	req.Header.Set("X-Curation-Event-Id", event.ID)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: publish audit event id=%s: %v", errWebhookTransient, event.ID, err)
		p.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf("%w: publish audit event id=%s status=%d body=%s",
				errWebhookTransient, event.ID, resp.StatusCode, strings.TrimSpace(string(raw)))
			p.recordCircuitResult(callErr)
			return callErr
		}

		callErr := fmt.Errorf("publish audit event id=%s status=%d body=%s",
			event.ID, resp.StatusCode, strings.TrimSpace(string(raw)))
		p.recordCircuitResult(callErr)
		return callErr
	}

	p.logger.InfoContext(ctx, "curation webhook published", "event_id", event.ID, "event_kind", event.Kind)
	p.recordCircuitResult(nil)
	return nil
}

// Breaker exposes the circuit breaker for status reporting. Nil when
// disabled by config.
func (p *WebhookPublisher) Breaker() *resilience.CircuitBreaker { return p.breaker }

func validateHTTPURL(raw string) (string, error) {
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

func buildCurlPreview(webhookURL, eventID, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(webhookURL))
	appendFlagHeader("Content-Type: application/json")
	appendFlagHeader("X-Curation-Event-Id: " + eventID)
	if withToken {
		appendFlagHeader("Authorization: Bearer ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (p *WebhookPublisher) recordCircuitResult(err error) {
	if p.breaker == nil {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errWebhookTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
