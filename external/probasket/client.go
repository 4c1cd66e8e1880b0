package probasket

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ProviderName tags every record this client produces.
const ProviderName = "probasket"

const (
	defaultBaseURL   = "https://api.probasket.io/v3"
	maxResponseBytes = 4 << 20
)

var errProBasketTransient = crerr.New("probasket transient failure")

// tipoffLayouts are every timestamp shape probasket has been seen emitting.
// The scoreboard endpoints return RFC 3339, older schedule endpoints a
// space-separated form, and the European feeds a dotted day-first form.
var tipoffLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Leagues        []string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the probasket statistics API. probasket pushes scores while
// games run, so it is live-capable and its score/status reports win
// reconciliation conflicts against delayed providers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	leagues    map[string]struct{}
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

var _ usecase.SourceAdapter = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	leagues := cfg.Leagues
	if len(leagues) == 0 {
		leagues = []string{"euroleague", "eurocup", "liga-acb", "lnb-proa"}
	}
	covered := make(map[string]struct{}, len(leagues))
	for _, id := range leagues {
		covered[strings.TrimSpace(id)] = struct{}{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: max(cfg.MaxRetries, 0),
		leagues:    covered,
		logger:     logger,
		breaker:    resilience.NewBreakerFromConfig(ProviderName, cfg.CircuitBreaker),
	}
}

func (c *Client) Name() string { return ProviderName }

// LiveCapable is true: probasket updates scores in-game.
func (c *Client) LiveCapable() bool { return true }

func (c *Client) Covers(leagueID string) bool {
	_, ok := c.leagues[leagueID]
	return ok
}

// Breaker exposes the circuit breaker for status reporting. Nil when
// disabled by config.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// FetchFixtures pulls one league window, or one team's window when the
// request carries the provider-native team id. probasket's per-team schedule
// endpoint is much cheaper than the league scan, so prefer it when possible.
func (c *Client) FetchFixtures(ctx context.Context, req usecase.FetchRequest) (usecase.FetchResult, error) {
	if strings.TrimSpace(req.LeagueID) == "" {
		return usecase.FetchResult{}, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return usecase.FetchResult{}, fmt.Errorf("%w: fetch window [%s, %s) is invalid", usecase.ErrInvalidInput, req.From, req.To)
	}

	path := "/competitions/" + req.LeagueID + "/games"
	if teamID := strings.TrimSpace(req.TeamExternalID); teamID != "" {
		path = "/teams/" + teamID + "/schedule"
	}

	fullURL := fmt.Sprintf("%s%s?from=%s&to=%s",
		c.baseURL,
		path,
		req.From.UTC().Format(schedule.DateKeyLayout),
		req.To.UTC().Format(schedule.DateKeyLayout),
	)
	if season := strings.TrimSpace(req.Season); season != "" {
		fullURL += "&season=" + season
	}

	var envelope gamesEnvelope
	if err := c.doJSON(ctx, fullURL, &envelope); err != nil {
		return usecase.FetchResult{}, fmt.Errorf("fetch probasket games league=%s: %w", req.LeagueID, err)
	}

	result := usecase.FetchResult{Fixtures: make([]schedule.RawFixture, 0, len(envelope.Data))}
	for _, item := range envelope.Data {
		raw, ok := mapGame(req.LeagueID, item)
		if !ok {
			result.SkippedRecords++
			c.logger.WarnContext(ctx, "skip malformed probasket game",
				"league_id", req.LeagueID,
				"native_id", item.GameID,
				"tipoff", item.Tipoff)
			continue
		}
		result.Fixtures = append(result.Fixtures, raw)
	}

	return result, nil
}

func (c *Client) doJSON(ctx context.Context, fullURL string, target any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "probasket circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: probasket is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, fullURL)
	c.recordCircuitResult(err)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode probasket payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errProBasketTransient, sanitizeKeyText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errProBasketTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errProBasketTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
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
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "probasket request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) recordCircuitResult(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errProBasketTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

type gamesEnvelope struct {
	Data []gameItem `json:"data"`
}

type gameItem struct {
	GameID       string   `json:"gameId"`
	Status       string   `json:"status"`
	Tipoff       string   `json:"tipoff"`
	UTCOffsetMin *int     `json:"utcOffsetMin"`
	Home         gameSide `json:"home"`
	Away         gameSide `json:"away"`
}

type gameSide struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Points *int   `json:"points"`
}

// mapGame turns one probasket row into a raw fixture. probasket reports the
// tipoff in the venue's local clock plus an explicit UTC offset; RFC 3339
// rows carry the offset in the timestamp itself.
func mapGame(leagueID string, item gameItem) (schedule.RawFixture, bool) {
	nativeID := strings.TrimSpace(item.GameID)
	homeName := strings.TrimSpace(item.Home.Name)
	awayName := strings.TrimSpace(item.Away.Name)
	if nativeID == "" || homeName == "" || awayName == "" {
		return schedule.RawFixture{}, false
	}

	tipoff, offsetMin, ok := parseTipoff(item.Tipoff, item.UTCOffsetMin)
	if !ok {
		return schedule.RawFixture{}, false
	}

	return schedule.RawFixture{
		Provider:       ProviderName,
		NativeID:       nativeID,
		LeagueID:       leagueID,
		HomeName:       homeName,
		AwayName:       awayName,
		TipoffUTC:      tipoff,
		VenueOffsetMin: offsetMin,
		HomeScore:      copyScore(item.Home.Points),
		AwayScore:      copyScore(item.Away.Points),
		Status:         strings.TrimSpace(item.Status),
	}, true
}

func parseTipoff(raw string, explicitOffsetMin *int) (time.Time, int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, 0, false
	}

	for _, layout := range tipoffLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}

		if hasZone(layout) {
			_, offsetSec := parsed.Zone()
			offsetMin := offsetSec / 60
			if explicitOffsetMin != nil {
				offsetMin = *explicitOffsetMin
			}
			return parsed.UTC(), offsetMin, true
		}

		// Zone-less layouts are venue-local wall clock; without the
		// explicit offset the row is ambiguous and gets skipped.
		if explicitOffsetMin == nil {
			return time.Time{}, 0, false
		}
		offsetMin := *explicitOffsetMin
		local := time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0,
			time.FixedZone("venue", offsetMin*60))
		return local.UTC(), offsetMin, true
	}
	return time.Time{}, 0, false
}

func hasZone(layout string) bool {
	return strings.Contains(layout, "Z07:00") || strings.Contains(layout, "-07:00")
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}

func sanitizeKeyText(value, key string) string {
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return value
	}
	return strings.ReplaceAll(value, key, "REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
