package leaguesites

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
	"github.com/valyala/fasthttp"
)

// ProviderName tags every record this client produces.
const ProviderName = "leaguesites"

const maxResponseBytes = 2 << 20

var errLeagueSitesTransient = crerr.New("leaguesites transient failure")

type ClientConfig struct {
	// Endpoints maps a league id to its game-center JSON URL. A league
	// without an entry is not covered by this adapter.
	Endpoints map[string]string
	// VenueTZ maps a league id to the IANA zone used when a game row does
	// not carry its own tz field.
	VenueTZ    map[string]string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	// UserAgent is sent on every request; some league sites reject the
	// default fasthttp agent.
	UserAgent      string
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client scrapes the official league game-center JSON endpoints. Each league
// publishes its own URL and its own quirks; the endpoint table keeps them
// apart. Game centers publish venue-local wall-clock times, so rows resolve
// through the league's IANA zone.
type Client struct {
	client     *fasthttp.Client
	endpoints  map[string]string
	venueTZ    map[string]string
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	userAgent  string
}

var _ usecase.SourceAdapter = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for leagueID, endpoint := range cfg.Endpoints {
		leagueID = strings.TrimSpace(leagueID)
		endpoint = strings.TrimSpace(endpoint)
		if leagueID == "" || endpoint == "" {
			continue
		}
		endpoints[leagueID] = endpoint
	}

	venueTZ := make(map[string]string, len(cfg.VenueTZ))
	for leagueID, tz := range cfg.VenueTZ {
		venueTZ[strings.TrimSpace(leagueID)] = strings.TrimSpace(tz)
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "tipoff-schedule-bot/1.0"
	}

	return &Client{
		client: &fasthttp.Client{
			Name:                     userAgent,
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
			MaxConnsPerHost:          16,
			NoDefaultUserAgentHeader: false,
		},
		endpoints:  endpoints,
		venueTZ:    venueTZ,
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		breaker:    resilience.NewBreakerFromConfig(ProviderName, cfg.CircuitBreaker),
		userAgent:  userAgent,
	}
}

func (c *Client) Name() string { return ProviderName }

// LiveCapable is false: game centers trail the arena clock.
func (c *Client) LiveCapable() bool { return false }

func (c *Client) Covers(leagueID string) bool {
	_, ok := c.endpoints[leagueID]
	return ok
}

// Breaker exposes the circuit breaker for status reporting. Nil when
// disabled by config.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// FetchFixtures pulls one league's game-center window. Game centers have no
// per-team view worth using; team requests fetch the league window and let
// the caller filter.
func (c *Client) FetchFixtures(ctx context.Context, req usecase.FetchRequest) (usecase.FetchResult, error) {
	endpoint, ok := c.endpoints[req.LeagueID]
	if !ok {
		return usecase.FetchResult{}, fmt.Errorf("%w: no game-center endpoint for league %q", usecase.ErrInvalidInput, req.LeagueID)
	}
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return usecase.FetchResult{}, fmt.Errorf("%w: fetch window [%s, %s) is invalid", usecase.ErrInvalidInput, req.From, req.To)
	}

	fullURL, err := buildGameCenterURL(endpoint, req)
	if err != nil {
		return usecase.FetchResult{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	raw, err := c.fetch(ctx, fullURL)
	if err != nil {
		return usecase.FetchResult{}, fmt.Errorf("fetch game center league=%s: %w", req.LeagueID, err)
	}

	var envelope gameCenterEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return usecase.FetchResult{}, fmt.Errorf("decode game center payload league=%s: %w", req.LeagueID, err)
	}

	fallbackTZ := c.venueTZ[req.LeagueID]
	result := usecase.FetchResult{Fixtures: make([]schedule.RawFixture, 0, len(envelope.Games))}
	for _, item := range envelope.Games {
		raw, ok := mapGame(req.LeagueID, item, fallbackTZ)
		if !ok {
			result.SkippedRecords++
			c.logger.WarnContext(ctx, "skip malformed game-center row",
				"league_id", req.LeagueID,
				"code", item.Code,
				"date", item.Date,
				"time", item.Time)
			continue
		}
		result.Fixtures = append(result.Fixtures, raw)
	}

	return result, nil
}

func buildGameCenterURL(endpoint string, req usecase.FetchRequest) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %v", endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("endpoint %q uses unsupported scheme %q", endpoint, parsed.Scheme)
	}

	query := parsed.Query()
	query.Set("from", req.From.UTC().Format(schedule.DateKeyLayout))
	query.Set("to", req.To.UTC().Format(schedule.DateKeyLayout))
	if season := strings.TrimSpace(req.Season); season != "" {
		query.Set("season", season)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// fetch issues the GET through fasthttp. fasthttp has no context plumbing,
// so the per-attempt timeout is clamped to the context deadline and the
// context is re-checked between retries.
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "leaguesites circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: league game centers are temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, fullURL)
	c.recordCircuitResult(err)
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		timeout := c.timeout
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, context.DeadlineExceeded
			}
			if remaining < timeout {
				timeout = remaining
			}
		}

		raw, status, err := c.doOnce(fullURL, timeout)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errLeagueSitesTransient, err)
		} else if status >= 200 && status < 300 {
			return raw, nil
		} else if isRetryableStatus(status) {
			lastErr = fmt.Errorf("%w: game center status=%d body=%s", errLeagueSitesTransient, status, abbreviateBody(raw))
		} else {
			return nil, fmt.Errorf("game center status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("game center request failed")
	}
	c.logger.WarnContext(ctx, "leaguesites request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) doOnce(fullURL string, timeout time.Duration) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, 0, err
	}

	body := resp.Body()
	if len(body) > maxResponseBytes {
		body = body[:maxResponseBytes]
	}
	// The response buffer is pooled; copy before release.
	raw := append([]byte(nil), body...)
	return raw, resp.StatusCode(), nil
}

func (c *Client) recordCircuitResult(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errLeagueSitesTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

type gameCenterEnvelope struct {
	Games []gameCenterRow `json:"games"`
}

// gameCenterRow is the shape the league sites share: local/road clubs, a
// venue-local date and clock, and an optional per-row zone override.
type gameCenterRow struct {
	Code   string        `json:"code"`
	Date   string        `json:"date"`
	Time   string        `json:"time"`
	TZ     string        `json:"tz"`
	Status string        `json:"status"`
	Local  gameCenterTwo `json:"local"`
	Road   gameCenterTwo `json:"road"`
}

type gameCenterTwo struct {
	Club  string `json:"club"`
	Score *int   `json:"score"`
}

// mapGame resolves a game-center row into a raw fixture. The row's wall
// clock is interpreted in the row's zone (or the league default); the UTC
// offset in force at that instant is preserved, which keeps DST transitions
// honest.
func mapGame(leagueID string, item gameCenterRow, fallbackTZ string) (schedule.RawFixture, bool) {
	code := strings.TrimSpace(item.Code)
	homeName := strings.TrimSpace(item.Local.Club)
	awayName := strings.TrimSpace(item.Road.Club)
	if code == "" || homeName == "" || awayName == "" {
		return schedule.RawFixture{}, false
	}

	tzName := strings.TrimSpace(item.TZ)
	if tzName == "" {
		tzName = strings.TrimSpace(fallbackTZ)
	}
	if tzName == "" {
		return schedule.RawFixture{}, false
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return schedule.RawFixture{}, false
	}

	local, err := time.ParseInLocation("02/01/2006 15:04",
		strings.TrimSpace(item.Date)+" "+strings.TrimSpace(item.Time), loc)
	if err != nil {
		return schedule.RawFixture{}, false
	}
	_, offsetSec := local.Zone()

	return schedule.RawFixture{
		Provider:       ProviderName,
		NativeID:       code,
		LeagueID:       leagueID,
		HomeName:       homeName,
		AwayName:       awayName,
		TipoffUTC:      local.UTC(),
		VenueOffsetMin: offsetSec / 60,
		HomeScore:      copyScore(item.Local.Score),
		AwayScore:      copyScore(item.Road.Score),
		Status:         strings.TrimSpace(item.Status),
	}, true
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
