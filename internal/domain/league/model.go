package league

import "fmt"

// League is a basketball competition the engine reconciles fixtures for.
// VenueTZ is the IANA zone assumed when a provider omits the venue offset;
// Providers lists the source adapters known to cover the league.
type League struct {
	ID          string
	Name        string
	CountryCode string
	Season      string
	VenueTZ     string
	Providers   []string
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Season == "" {
		return fmt.Errorf("league season is required")
	}
	if l.VenueTZ == "" {
		return fmt.Errorf("league venue timezone is required")
	}

	return nil
}
