package collegefeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

// ProviderName is the provenance tag stamped on every record this client
// produces. League catalogs reference it in their provider lists.
const ProviderName = "collegefeed"

const (
	defaultBaseURL   = "https://api.collegefeed.io/v2"
	maxResponseBytes = 6 << 20
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errCollegeFeedTransient = crerr.New("collegefeed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Leagues        []string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the collegefeed scoreboard API. The feed republishes final
// box scores on a delay, so it is not live-capable: its score reports lose
// to live providers during reconciliation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	leagues    map[string]struct{}
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
}

var _ usecase.SourceAdapter = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	leagues := cfg.Leagues
	if len(leagues) == 0 {
		leagues = []string{"ncaa-d1"}
	}
	covered := make(map[string]struct{}, len(leagues))
	for _, id := range leagues {
		covered[strings.TrimSpace(id)] = struct{}{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		maxRetries: max(cfg.MaxRetries, 0),
		leagues:    covered,
		logger:     logger,
		breaker:    resilience.NewBreakerFromConfig(ProviderName, cfg.CircuitBreaker),
	}
}

func (c *Client) Name() string { return ProviderName }

// LiveCapable is false: collegefeed publishes scores after a delay.
func (c *Client) LiveCapable() bool { return false }

func (c *Client) Covers(leagueID string) bool {
	_, ok := c.leagues[leagueID]
	return ok
}

// Breaker exposes the circuit breaker for status reporting. Nil when the
// breaker is disabled by config.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// FetchFixtures pulls the scoreboard rows for one league window. Records the
// feed mangled (missing sides, unparseable tipoff) are skipped and counted so
// one bad row never sinks the batch.
func (c *Client) FetchFixtures(ctx context.Context, req usecase.FetchRequest) (usecase.FetchResult, error) {
	if strings.TrimSpace(req.LeagueID) == "" {
		return usecase.FetchResult{}, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return usecase.FetchResult{}, fmt.Errorf("%w: fetch window [%s, %s) is invalid", usecase.ErrInvalidInput, req.From, req.To)
	}

	query := map[string]string{
		"league": req.LeagueID,
		"from":   req.From.UTC().Format(schedule.DateKeyLayout),
		"to":     req.To.UTC().Format(schedule.DateKeyLayout),
	}
	if teamID := strings.TrimSpace(req.TeamExternalID); teamID != "" {
		query["team"] = teamID
	}
	if season := strings.TrimSpace(req.Season); season != "" {
		query["season"] = season
	}

	var envelope gamesEnvelope
	if err := c.doJSON(ctx, "/games", query, &envelope); err != nil {
		return usecase.FetchResult{}, fmt.Errorf("fetch collegefeed games league=%s: %w", req.LeagueID, err)
	}

	result := usecase.FetchResult{Fixtures: make([]schedule.RawFixture, 0, len(envelope.Games))}
	for _, item := range envelope.Games {
		raw, ok := mapGame(req.LeagueID, item)
		if !ok {
			result.SkippedRecords++
			c.logger.WarnContext(ctx, "skip malformed collegefeed game",
				"league_id", req.LeagueID,
				"native_id", item.ID,
				"tipoff", item.Tipoff)
			continue
		}
		result.Fixtures = append(result.Fixtures, raw)
	}

	return result, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "collegefeed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: collegefeed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	if c.token != "" {
		values.Set("api_token", c.token)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// Identical in-flight GETs collapse: the scheduler and a cold query
	// path may ask for the same window at the same moment.
	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		c.recordCircuitResult(reqErr)
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode collegefeed payload: %w", err)
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

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errCollegeFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errCollegeFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errCollegeFeedTransient, resp.StatusCode, abbreviateBody(raw))
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
	c.logger.WarnContext(ctx, "collegefeed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func (c *Client) recordCircuitResult(err error) {
	if c.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errCollegeFeedTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

type gamesEnvelope struct {
	Games []gameItem `json:"games"`
}

type gameItem struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Tipoff string   `json:"tipoff"`
	Home   gameSide `json:"home"`
	Away   gameSide `json:"away"`
}

type gameSide struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

// mapGame turns one scoreboard row into a raw fixture. The tipoff arrives as
// RFC 3339 in the venue's zone; the offset is preserved for venue-local
// rendering downstream.
func mapGame(leagueID string, item gameItem) (schedule.RawFixture, bool) {
	nativeID := strings.TrimSpace(item.ID)
	homeName := strings.TrimSpace(item.Home.Name)
	awayName := strings.TrimSpace(item.Away.Name)
	if nativeID == "" || homeName == "" || awayName == "" {
		return schedule.RawFixture{}, false
	}

	tipoff, offsetMin, ok := parseTipoff(item.Tipoff)
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
		HomeScore:      copyScore(item.Home.Score),
		AwayScore:      copyScore(item.Away.Score),
		Status:         strings.TrimSpace(item.Status),
	}, true
}

// parseTipoff accepts RFC 3339 (offset preserved) and the feed's legacy
// space-separated layout, which is always UTC.
func parseTipoff(raw string) (time.Time, int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, 0, false
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		_, offsetSec := parsed.Zone()
		return parsed.UTC(), offsetSec / 60, true
	}
	if parsed, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return parsed.UTC(), 0, true
	}
	return time.Time{}, 0, false
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
