package memory

import (
	"github.com/draftradar/tipoff/internal/domain/identity"
	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/prospect"
)

const (
	LeagueIDEuroLeague = "euroleague"
	LeagueIDEuroCup    = "eurocup"
	LeagueIDLigaACB    = "liga-acb"
	LeagueIDLNBProA    = "lnb-proa"
	LeagueIDNCAA       = "ncaa-d1"

	FamilyKeyASVEL     = "asvel"
	FamilyKeyBarcelona = "barcelona"
	FamilyKeyJoventut  = "joventut badalona"
	FamilyKeyParis     = "paris"
	FamilyKeyValencia  = "valencia basket"
	FamilyKeyDuke      = "duke blue devils"
)

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:          LeagueIDEuroLeague,
			Name:        "EuroLeague",
			CountryCode: "EU",
			Season:      "2025/2026",
			VenueTZ:     "Europe/Madrid",
			Providers:   []string{"leaguesites", "probasket"},
		},
		{
			ID:          LeagueIDEuroCup,
			Name:        "EuroCup",
			CountryCode: "EU",
			Season:      "2025/2026",
			VenueTZ:     "Europe/Madrid",
			Providers:   []string{"leaguesites", "probasket"},
		},
		{
			ID:          LeagueIDLigaACB,
			Name:        "Liga ACB",
			CountryCode: "ES",
			Season:      "2025/2026",
			VenueTZ:     "Europe/Madrid",
			Providers:   []string{"leaguesites", "probasket"},
		},
		{
			ID:          LeagueIDLNBProA,
			Name:        "LNB Pro A",
			CountryCode: "FR",
			Season:      "2025/2026",
			VenueTZ:     "Europe/Paris",
			Providers:   []string{"leaguesites", "probasket"},
		},
		{
			ID:          LeagueIDNCAA,
			Name:        "NCAA Division I",
			CountryCode: "US",
			Season:      "2025-26",
			VenueTZ:     "America/New_York",
			Providers:   []string{"collegefeed"},
		},
	}
}

// SeedTeamIdentities ships the curated clubs. Aliases are canonical keys
// (already normalized); Valencia Basket deliberately carries none so the
// "Valencia"/"Valencia Basket" pair exercises the heuristic tier.
func SeedTeamIdentities() []identity.TeamIdentity {
	return []identity.TeamIdentity{
		{
			FamilyKey:   FamilyKeyASVEL,
			DisplayName: "ASVEL Basket",
			Aliases:     []string{"lyon villeurbanne", "ldlc asvel", "asvel lyon villeurbanne"},
			ExternalIDs: map[string]string{"probasket": "1912", "leaguesites": "ASV"},
			Leagues:     []string{LeagueIDEuroLeague, LeagueIDLNBProA},
		},
		{
			FamilyKey:   FamilyKeyBarcelona,
			DisplayName: "FC Barcelona",
			Aliases:     []string{"fc barcelona", "barca", "barcelona lassa"},
			ExternalIDs: map[string]string{"probasket": "2859", "leaguesites": "BAR"},
			Leagues:     []string{LeagueIDEuroLeague, LeagueIDLigaACB},
		},
		{
			FamilyKey:   FamilyKeyJoventut,
			DisplayName: "Joventut Badalona",
			Aliases:     []string{"penya"},
			ExternalIDs: map[string]string{"probasket": "3001", "leaguesites": "JOV"},
			Leagues:     []string{LeagueIDEuroCup, LeagueIDLigaACB},
		},
		{
			FamilyKey:   FamilyKeyParis,
			DisplayName: "Paris Basketball",
			ExternalIDs: map[string]string{"probasket": "7120", "leaguesites": "PAR"},
			Leagues:     []string{LeagueIDEuroLeague, LeagueIDLNBProA},
		},
		{
			FamilyKey:   FamilyKeyValencia,
			DisplayName: "Valencia Basket",
			ExternalIDs: map[string]string{"probasket": "2407", "leaguesites": "VAL"},
			Leagues:     []string{LeagueIDEuroCup, LeagueIDLigaACB},
		},
		{
			FamilyKey:   FamilyKeyDuke,
			DisplayName: "Duke Blue Devils",
			ExternalIDs: map[string]string{"collegefeed": "150"},
			Leagues:     []string{LeagueIDNCAA},
		},
	}
}

func SeedProspects() []prospect.Prospect {
	return []prospect.Prospect{
		{
			ID:        "pr-theo-marchand",
			FullName:  "Théo Marchand",
			Position:  prospect.PositionPointGuard,
			Class:     "2026",
			BirthYear: 2007,
			FamilyKey: FamilyKeyASVEL,
			Tracked:   true,
		},
		{
			ID:        "pr-jalen-okafor",
			FullName:  "Jalen Okafor",
			Position:  prospect.PositionSmallForward,
			Class:     "2026",
			BirthYear: 2006,
			FamilyKey: FamilyKeyDuke,
			Tracked:   true,
		},
		{
			ID:        "pr-marc-puig",
			FullName:  "Marc Puig",
			Position:  prospect.PositionShootingGuard,
			Class:     "2027",
			BirthYear: 2008,
			FamilyKey: FamilyKeyJoventut,
			Tracked:   true,
		},
		{
			ID:        "pr-andre-leclerc",
			FullName:  "André Leclerc",
			Position:  prospect.PositionCenter,
			Class:     "2026",
			BirthYear: 2006,
			FamilyKey: FamilyKeyParis,
			Tracked:   true,
		},
		{
			ID:        "pr-sergi-blanco",
			FullName:  "Sergi Blanco",
			Position:  prospect.PositionPowerForward,
			Class:     "2027",
			BirthYear: 2007,
			FamilyKey: FamilyKeyValencia,
			Tracked:   false,
		},
	}
}
