package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// ProviderConfig holds the upstream knobs for one source adapter.
type ProviderConfig struct {
	Enabled       bool
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	MaxConcurrent int
	MaxRetries    int
	Circuit       resilience.CircuitBreakerConfig
}

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	SwaggerEnabled          bool
	PprofEnabled            bool
	PprofAddr               string

	RefreshInterval         time.Duration
	RefreshScopeConcurrency int
	ProspectWindowDays      int
	ScheduleTTLDefault      time.Duration
	ScheduleTTLLive         time.Duration
	DisplayTimezone         string
	AliasTablePath          string
	IdentityHeuristicMinLen int
	HeartbeatURL            string

	CollegeFeed                 ProviderConfig
	ProBasket                   ProviderConfig
	LeagueSites                 ProviderConfig
	LeagueSitesEndpointByLeague map[string]string

	CurationWebhookEnabled bool
	CurationWebhookURL     string
	CurationWebhookToken   string
	CurationWebhookTimeout time.Duration
	CurationCircuit        resilience.CircuitBreakerConfig

	InternalJobToken string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int
	BetterStackEnabled         bool
	BetterStackEndpoint        string
	BetterStackToken           string
	BetterStackTimeout         time.Duration
	BetterStackMinLevel        logging.Level
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}
	refreshScopeConcurrency, err := getEnvAsInt("REFRESH_SCOPE_CONCURRENCY", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_SCOPE_CONCURRENCY: %w", err)
	}
	if refreshScopeConcurrency < 1 {
		return Config{}, fmt.Errorf("REFRESH_SCOPE_CONCURRENCY must be >= 1")
	}
	prospectWindowDays, err := getEnvAsInt("PROSPECT_WINDOW_DAYS", 7)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROSPECT_WINDOW_DAYS: %w", err)
	}
	if prospectWindowDays < 1 {
		return Config{}, fmt.Errorf("PROSPECT_WINDOW_DAYS must be >= 1")
	}

	scheduleTTLDefault, err := time.ParseDuration(getEnv("SCHEDULE_TTL_DEFAULT", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TTL_DEFAULT: %w", err)
	}
	if scheduleTTLDefault <= 0 {
		return Config{}, fmt.Errorf("SCHEDULE_TTL_DEFAULT must be > 0")
	}
	scheduleTTLLive, err := time.ParseDuration(getEnv("SCHEDULE_TTL_LIVE", "45s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULE_TTL_LIVE: %w", err)
	}
	if scheduleTTLLive <= 0 {
		return Config{}, fmt.Errorf("SCHEDULE_TTL_LIVE must be > 0")
	}

	displayTimezone := strings.TrimSpace(getEnv("DISPLAY_TIMEZONE", "America/New_York"))
	if _, err := time.LoadLocation(displayTimezone); err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", displayTimezone, err)
	}

	identityHeuristicMinLen, err := getEnvAsInt("IDENTITY_HEURISTIC_MIN_LEN", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse IDENTITY_HEURISTIC_MIN_LEN: %w", err)
	}
	if identityHeuristicMinLen < 1 {
		return Config{}, fmt.Errorf("IDENTITY_HEURISTIC_MIN_LEN must be >= 1")
	}

	collegeFeed, err := loadProvider("COLLEGEFEED", providerDefaults{
		baseURL:       "https://api.collegefeed.io/v2",
		timeout:       "10s",
		maxConcurrent: 4,
		maxRetries:    1,
	})
	if err != nil {
		return Config{}, err
	}
	if collegeFeed.Enabled && collegeFeed.APIToken == "" {
		return Config{}, fmt.Errorf("COLLEGEFEED_API_TOKEN is required when COLLEGEFEED_ENABLED=true")
	}

	proBasket, err := loadProvider("PROBASKET", providerDefaults{
		baseURL:       "https://api.probasket.io/v3",
		timeout:       "15s",
		maxConcurrent: 4,
		maxRetries:    0,
	})
	if err != nil {
		return Config{}, err
	}
	if proBasket.Enabled && proBasket.APIToken == "" {
		return Config{}, fmt.Errorf("PROBASKET_API_TOKEN is required when PROBASKET_ENABLED=true")
	}

	leagueSites, err := loadProvider("LEAGUESITES", providerDefaults{
		timeout:       "20s",
		maxConcurrent: 2,
		maxRetries:    0,
	})
	if err != nil {
		return Config{}, err
	}
	leagueSitesEndpoints, err := parseURLMap(getEnv("LEAGUESITES_ENDPOINT_MAP", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUESITES_ENDPOINT_MAP: %w", err)
	}

	curationWebhookEnabled, err := strconv.ParseBool(getEnv("CURATION_WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CURATION_WEBHOOK_ENABLED: %w", err)
	}
	curationWebhookURL := strings.TrimSpace(getEnv("CURATION_WEBHOOK_URL", ""))
	if curationWebhookEnabled && curationWebhookURL == "" {
		return Config{}, fmt.Errorf("CURATION_WEBHOOK_URL is required when CURATION_WEBHOOK_ENABLED=true")
	}
	curationWebhookTimeout, err := time.ParseDuration(getEnv("CURATION_WEBHOOK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CURATION_WEBHOOK_TIMEOUT: %w", err)
	}
	if curationWebhookTimeout <= 0 {
		return Config{}, fmt.Errorf("CURATION_WEBHOOK_TIMEOUT must be > 0")
	}
	curationCircuit, err := loadCircuit("CURATION")
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	betterStackEnabled, err := strconv.ParseBool(getEnv("BETTERSTACK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_ENABLED: %w", err)
	}
	betterStackEndpoint := strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if betterStackEnabled && betterStackEndpoint == "" {
		return Config{}, fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	betterStackTimeout, err := time.ParseDuration(getEnv("BETTERSTACK_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BETTERSTACK_TIMEOUT: %w", err)
	}
	if betterStackTimeout <= 0 {
		return Config{}, fmt.Errorf("BETTERSTACK_TIMEOUT must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "tipoff-api"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                    getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                 readTimeout,
		WriteTimeout:                writeTimeout,
		DBURL:                       strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:     dbDisablePreparedBinary,
		CacheEnabled:                cacheEnabled,
		CacheTTL:                    cacheTTL,
		CORSAllowedOrigins:          splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:              swaggerEnabled,
		PprofEnabled:                pprofEnabled,
		PprofAddr:                   pprofAddr,
		RefreshInterval:             refreshInterval,
		RefreshScopeConcurrency:     refreshScopeConcurrency,
		ProspectWindowDays:          prospectWindowDays,
		ScheduleTTLDefault:          scheduleTTLDefault,
		ScheduleTTLLive:             scheduleTTLLive,
		DisplayTimezone:             displayTimezone,
		AliasTablePath:              strings.TrimSpace(getEnv("ALIAS_TABLE_PATH", "")),
		IdentityHeuristicMinLen:     identityHeuristicMinLen,
		HeartbeatURL:                strings.TrimSpace(getEnv("HEARTBEAT_URL", "")),
		CollegeFeed:                 collegeFeed,
		ProBasket:                   proBasket,
		LeagueSites:                 leagueSites,
		LeagueSitesEndpointByLeague: leagueSitesEndpoints,
		CurationWebhookEnabled:      curationWebhookEnabled,
		CurationWebhookURL:          curationWebhookURL,
		CurationWebhookToken:        strings.TrimSpace(getEnv("CURATION_WEBHOOK_TOKEN", "")),
		CurationWebhookTimeout:      curationWebhookTimeout,
		CurationCircuit:             curationCircuit,
		InternalJobToken:            strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		UptraceLogsEnabled:          uptraceLogsEnabled,
		UptraceCaptureRequestBody:   uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes:  uptraceRequestBodyMaxBytes,
		BetterStackEnabled:          betterStackEnabled,
		BetterStackEndpoint:         betterStackEndpoint,
		BetterStackToken:            strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", "")),
		BetterStackTimeout:          betterStackTimeout,
		BetterStackMinLevel:         parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "error")),
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
		LogLevel:                    parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

type providerDefaults struct {
	baseURL       string
	timeout       string
	maxConcurrent int
	maxRetries    int
}

func loadProvider(prefix string, defaults providerDefaults) (ProviderConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_ENABLED", "false"))
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_ENABLED: %w", prefix, err)
	}

	timeout, err := time.ParseDuration(getEnv(prefix+"_TIMEOUT", defaults.timeout))
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_TIMEOUT: %w", prefix, err)
	}
	if timeout <= 0 {
		return ProviderConfig{}, fmt.Errorf("%s_TIMEOUT must be > 0", prefix)
	}

	maxConcurrent, err := getEnvAsInt(prefix+"_MAX_CONCURRENT", defaults.maxConcurrent)
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_MAX_CONCURRENT: %w", prefix, err)
	}
	if maxConcurrent < 1 {
		return ProviderConfig{}, fmt.Errorf("%s_MAX_CONCURRENT must be >= 1", prefix)
	}

	maxRetries, err := getEnvAsInt(prefix+"_MAX_RETRIES", defaults.maxRetries)
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_MAX_RETRIES: %w", prefix, err)
	}
	if maxRetries < 0 {
		return ProviderConfig{}, fmt.Errorf("%s_MAX_RETRIES must be >= 0", prefix)
	}

	circuit, err := loadCircuit(prefix)
	if err != nil {
		return ProviderConfig{}, err
	}

	return ProviderConfig{
		Enabled:       enabled,
		BaseURL:       strings.TrimSpace(getEnv(prefix+"_BASE_URL", defaults.baseURL)),
		APIToken:      strings.TrimSpace(getEnv(prefix+"_API_TOKEN", "")),
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
		Circuit:       circuit,
	}, nil
}

func loadCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}

	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}

	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if openTimeout <= 0 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}

	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseURLMap parses "league_id=url" pairs separated by commas.
func parseURLMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, "=", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected league_id=url", item)
		}

		key := strings.TrimSpace(segments[0])
		if key == "" {
			return nil, fmt.Errorf("empty league id in item %q", item)
		}
		value := strings.TrimSpace(segments[1])
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil, fmt.Errorf("invalid url in item %q", item)
		}

		out[key] = value
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	}

	return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
}
