package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.DBURL != "" {
		t.Fatalf("expected empty DB_URL default (memory storage), got %q", cfg.DBURL)
	}
	if cfg.RefreshInterval != 60*time.Second {
		t.Fatalf("unexpected RefreshInterval: %s", cfg.RefreshInterval)
	}
	if cfg.RefreshScopeConcurrency != 4 {
		t.Fatalf("unexpected RefreshScopeConcurrency: %d", cfg.RefreshScopeConcurrency)
	}
	if cfg.ScheduleTTLDefault != 5*time.Minute {
		t.Fatalf("unexpected ScheduleTTLDefault: %s", cfg.ScheduleTTLDefault)
	}
	if cfg.ScheduleTTLLive != 45*time.Second {
		t.Fatalf("unexpected ScheduleTTLLive: %s", cfg.ScheduleTTLLive)
	}
	if cfg.DisplayTimezone != "America/New_York" {
		t.Fatalf("unexpected DisplayTimezone: %s", cfg.DisplayTimezone)
	}
	if cfg.IdentityHeuristicMinLen != 4 {
		t.Fatalf("unexpected IdentityHeuristicMinLen: %d", cfg.IdentityHeuristicMinLen)
	}
	if cfg.CollegeFeed.Enabled || cfg.ProBasket.Enabled || cfg.LeagueSites.Enabled {
		t.Fatalf("providers must default to disabled")
	}
	if !cfg.CollegeFeed.Circuit.Enabled {
		t.Fatalf("provider circuit breakers must default to enabled")
	}
}

func TestLoad_RefreshIntervalValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("REFRESH_INTERVAL", "0s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for REFRESH_INTERVAL=0s")
	}

	t.Setenv("REFRESH_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparseable REFRESH_INTERVAL")
	}
}

func TestLoad_DisplayTimezoneValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISPLAY_TIMEZONE", "Mars/Olympus_Mons")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid DISPLAY_TIMEZONE")
	}
}

func TestLoad_HeuristicMinLenValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("IDENTITY_HEURISTIC_MIN_LEN", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for IDENTITY_HEURISTIC_MIN_LEN=0")
	}
}

func TestLoad_ProviderRequiresTokenWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("COLLEGEFEED_ENABLED", "true")
	t.Setenv("COLLEGEFEED_API_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when COLLEGEFEED_ENABLED=true without COLLEGEFEED_API_TOKEN")
	}
}

func TestLoad_ProviderConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PROBASKET_ENABLED", "true")
	t.Setenv("PROBASKET_API_TOKEN", "token-123")
	t.Setenv("PROBASKET_TIMEOUT", "7s")
	t.Setenv("PROBASKET_MAX_CONCURRENT", "3")
	t.Setenv("PROBASKET_CIRCUIT_FAILURE_COUNT", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.ProBasket.Enabled {
		t.Fatalf("expected ProBasket.Enabled=true")
	}
	if cfg.ProBasket.APIToken != "token-123" {
		t.Fatalf("unexpected ProBasket.APIToken")
	}
	if cfg.ProBasket.Timeout != 7*time.Second {
		t.Fatalf("unexpected ProBasket.Timeout: %s", cfg.ProBasket.Timeout)
	}
	if cfg.ProBasket.MaxConcurrent != 3 {
		t.Fatalf("unexpected ProBasket.MaxConcurrent: %d", cfg.ProBasket.MaxConcurrent)
	}
	if cfg.ProBasket.Circuit.FailureThreshold != 9 {
		t.Fatalf("unexpected ProBasket circuit failure threshold: %d", cfg.ProBasket.Circuit.FailureThreshold)
	}
}

func TestLoad_ProviderConcurrencyValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LEAGUESITES_MAX_CONCURRENT", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for LEAGUESITES_MAX_CONCURRENT=0")
	}
}

func TestLoad_LeagueSitesEndpointMap(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("LEAGUESITES_ENDPOINT_MAP", "lnb-proa=https://lnb.example.com/games, euroleague=https://el.example.com/games")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LeagueSitesEndpointByLeague) != 2 {
		t.Fatalf("unexpected endpoint map size: %d", len(cfg.LeagueSitesEndpointByLeague))
	}
	if cfg.LeagueSitesEndpointByLeague["lnb-proa"] != "https://lnb.example.com/games" {
		t.Fatalf("unexpected lnb-proa endpoint: %q", cfg.LeagueSitesEndpointByLeague["lnb-proa"])
	}

	t.Setenv("LEAGUESITES_ENDPOINT_MAP", "lnb-proa=ftp://lnb.example.com")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-http endpoint url")
	}

	t.Setenv("LEAGUESITES_ENDPOINT_MAP", "lnb-proa")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed endpoint map item")
	}
}

func TestLoad_CurationWebhookRequiresURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CURATION_WEBHOOK_ENABLED", "true")
	t.Setenv("CURATION_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when CURATION_WEBHOOK_ENABLED=true without CURATION_WEBHOOK_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev/project"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/project" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}
