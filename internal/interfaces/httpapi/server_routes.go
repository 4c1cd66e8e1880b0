package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/fixtures", handler.ListLeagueFixtures)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/resolve", handler.ResolveTeam)
	mux.HandleFunc("GET /v1/teams/{familyKey}/fixtures", handler.ListTeamFixtures)
	mux.HandleFunc("GET /v1/prospects", handler.ListProspects)
	mux.HandleFunc("GET /v1/prospects/{prospectID}/schedule", handler.GetProspectSchedule)
	mux.HandleFunc("GET /v1/audit/unmatched", handler.ListUnmatched)
}

func registerOperatorRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("GET /v1/status", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetStatus)))
	mux.Handle("POST /v1/audit/{eventID}/resolve", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResolveAuditEvent)))
	mux.Handle("POST /v1/internal/jobs/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshJob)))
	mux.Handle("POST /v1/internal/jobs/refresh-scope", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshScopeJob)))
	mux.Handle("GET /v1/internal/jobs/runs/{runID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetRefreshRun)))
}
